package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"activation-gate/internal/domain/model"
	"activation-gate/internal/usecase"
)

type codeView struct {
	Code        string     `json:"code"`
	State       string     `json:"state"`
	BoundDevice string     `json:"bound_device,omitempty"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Version     int64      `json:"version"`
}

func toView(c *model.ActivationCode) codeView {
	v := codeView{Code: c.Code, State: string(c.State), UsedAt: c.UsedAt, CreatedAt: c.CreatedAt, Version: c.Version}
	if c.BoundDevice != nil {
		v.BoundDevice = c.BoundDevice.String()
	}
	return v
}

func printCodes(w io.Writer, codes []codeView) {
	fmt.Fprintln(w, "CODE\tSTATE\tDEVICE\tUSED AT\tCREATED AT")
	for _, c := range codes {
		used := "-"
		if c.UsedAt != nil {
			used = c.UsedAt.Format(time.RFC3339)
		}
		dev := c.BoundDevice
		if dev == "" {
			dev = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.Code, c.State, dev, used, c.CreatedAt.Format(time.RFC3339))
	}
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(opts *RootOptions) *cobra.Command {
	var (
		count  int
		prefix string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a batch of random codes",
		Long: `Generate random codes of the form PREFIX-XXXX-XXXX-XXXX.

Examples:
  codectl generate --count 50 --prefix PRO
  codectl generate -n 5 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, uc usecase.ActivationUseCase, out *OutputFormatter) error {
				batch, err := uc.Generate(ctx, count, prefix)
				if err != nil {
					created := 0
					if batch != nil {
						created = len(batch.Codes)
					}
					return opError(fmt.Sprintf("generate failed after %d codes", created), err)
				}
				views := make([]codeView, 0, len(batch.Codes))
				for _, c := range batch.Codes {
					views = append(views, toView(c))
				}
				return out.Success(map[string]any{"batch_id": batch.BatchID, "codes": views}, func(w io.Writer) {
					for _, c := range views {
						fmt.Fprintln(w, c.Code)
					}
				})
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, fmt.Sprintf("number of codes (1-%d)", usecase.MaxGenerateCount))
	cmd.Flags().StringVar(&prefix, "prefix", "", "alphanumeric prefix, up to 16 characters")
	return cmd
}

// NewCreateCommand creates the create command.
func NewCreateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create CODE",
		Short: "Create a single code with an explicit value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, uc usecase.ActivationUseCase, out *OutputFormatter) error {
				c, err := uc.Create(ctx, args[0])
				if err != nil {
					return opError("create failed", err)
				}
				return out.Success(toView(c), func(w io.Writer) { printCodes(w, []codeView{toView(c)}) })
			})
		},
	}
}

// NewTransitionCommand creates the reset and disable commands.
func NewTransitionCommand(opts *RootOptions, name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " CODE",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, uc usecase.ActivationUseCase, out *OutputFormatter) error {
				apply := uc.Reset
				if name == "disable" {
					apply = uc.Disable
				}
				c, err := apply(ctx, args[0])
				if err != nil {
					return opError(name+" failed", err)
				}
				return out.Success(toView(c), func(w io.Writer) { printCodes(w, []codeView{toView(c)}) })
			})
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete CODE",
		Short: "Delete a code; its audit history is kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, uc usecase.ActivationUseCase, out *OutputFormatter) error {
				if err := uc.Delete(ctx, args[0]); err != nil {
					return opError("delete failed", err)
				}
				return out.Success(map[string]string{"deleted": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "deleted %s\n", args[0])
				})
			})
		},
	}
}

// NewStatusCommand creates the status command. It shows what an end user
// would see, so the bound device is masked.
func NewStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status CODE",
		Short: "Show the public status of a code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, uc usecase.ActivationUseCase, out *OutputFormatter) error {
				st, err := uc.Status(ctx, args[0])
				if err != nil {
					return opError("status failed", err)
				}
				view := map[string]any{"code": st.Code, "state": string(st.State), "developer": st.Developer}
				if st.UsedAt != nil {
					view["used_at"] = st.UsedAt
				}
				if st.BoundDeviceMasked != "" {
					view["bound_device_masked"] = st.BoundDeviceMasked
				}
				return out.Success(view, func(w io.Writer) {
					fmt.Fprintf(w, "code:\t%s\nstate:\t%s\n", st.Code, st.State)
					if st.BoundDeviceMasked != "" {
						fmt.Fprintf(w, "device:\t%s\n", st.BoundDeviceMasked)
					}
					if st.UsedAt != nil {
						fmt.Fprintf(w, "used at:\t%s\n", st.UsedAt.Format(time.RFC3339))
					}
				})
			})
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(opts *RootOptions) *cobra.Command {
	var (
		state         string
		offset, limit int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List codes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, uc usecase.ActivationUseCase, out *OutputFormatter) error {
				items, total, err := uc.List(ctx, state, offset, limit)
				if err != nil {
					return opError("list failed", err)
				}
				views := make([]codeView, 0, len(items))
				for _, c := range items {
					views = append(views, toView(c))
				}
				return out.Success(map[string]any{"items": views, "total": total, "offset": offset}, func(w io.Writer) {
					printCodes(w, views)
					fmt.Fprintf(w, "\n%d of %d\n", len(views), total)
				})
			})
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "filter by state (available|used|disabled)")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")
	cmd.Flags().IntVar(&limit, "limit", usecase.DefaultPageSize, fmt.Sprintf("page size (max %d)", usecase.MaxPageSize))
	return cmd
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show code counts by state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, uc usecase.ActivationUseCase, out *OutputFormatter) error {
				counts, err := uc.Stats(ctx)
				if err != nil {
					return opError("stats failed", err)
				}
				data := map[string]int{
					"available": counts[model.CodeStateAvailable],
					"used":      counts[model.CodeStateUsed],
					"disabled":  counts[model.CodeStateDisabled],
				}
				data["total"] = data["available"] + data["used"] + data["disabled"]
				return out.Success(data, func(w io.Writer) {
					for _, k := range []string{"available", "used", "disabled", "total"} {
						fmt.Fprintf(w, "%s\t%d\n", k, data[k])
					}
				})
			})
		},
	}
}

type logView struct {
	ID        int64             `json:"id"`
	Code      string            `json:"code"`
	Action    string            `json:"action"`
	Actor     string            `json:"actor"`
	Outcome   string            `json:"outcome"`
	Context   map[string]string `json:"context,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewLogsCommand creates the logs command.
func NewLogsCommand(opts *RootOptions) *cobra.Command {
	var (
		code  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent audit entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, uc usecase.ActivationUseCase, out *OutputFormatter) error {
				entries, err := uc.Logs(ctx, code, limit)
				if err != nil {
					return opError("logs failed", err)
				}
				views := make([]logView, 0, len(entries))
				for _, e := range entries {
					views = append(views, logView{
						ID: e.ID, Code: e.Code, Action: string(e.Action), Actor: string(e.Actor),
						Outcome: string(e.Outcome), Context: e.Context, CreatedAt: e.CreatedAt,
					})
				}
				return out.Success(views, func(w io.Writer) {
					fmt.Fprintln(w, "TIME\tCODE\tACTION\tACTOR\tOUTCOME")
					for _, v := range views {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.CreatedAt.Format(time.RFC3339), v.Code, v.Action, v.Actor, v.Outcome)
					}
				})
			})
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "only entries for this code")
	cmd.Flags().IntVar(&limit, "limit", usecase.DefaultPageSize, "number of entries")
	return cmd
}
