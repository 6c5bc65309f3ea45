package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"activation-gate/internal/domain"
	"activation-gate/internal/infra/worker"
	"activation-gate/internal/usecase"
)

// ImportSummary counts the outcome of every line in an import.
type ImportSummary struct {
	Created   int64 `json:"created"`
	Duplicate int64 `json:"duplicate"`
	Invalid   int64 `json:"invalid"`
	Failed    int64 `json:"failed"`
}

// NewImportCommand creates the import command.
func NewImportCommand(opts *RootOptions) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Create codes from a file, one per line",
		Long: `Create codes listed in FILE, one per line. Blank lines and lines
starting with # are skipped. Use - to read from stdin.

Existing codes are counted as duplicates and left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to open input", err)
				}
				defer f.Close()
				in = f
			}
			return run(cmd, opts, func(ctx context.Context, uc usecase.ActivationUseCase, out *OutputFormatter) error {
				sum, err := importCodes(ctx, uc, in, workers)
				if err != nil {
					return WrapExitError(ExitCommandError, "import aborted", err)
				}
				if err := out.Success(sum, func(w io.Writer) {
					fmt.Fprintf(w, "created\t%d\nduplicate\t%d\ninvalid\t%d\nfailed\t%d\n", sum.Created, sum.Duplicate, sum.Invalid, sum.Failed)
				}); err != nil {
					return err
				}
				if sum.Failed > 0 {
					return WrapExitError(ExitFailure, fmt.Sprintf("%d codes could not be stored", sum.Failed), nil)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "concurrent inserts")
	return cmd
}

func importCodes(ctx context.Context, uc usecase.ActivationUseCase, in io.Reader, workers int) (*ImportSummary, error) {
	nop := zerolog.Nop()
	pool := worker.NewPool(workers, &nop)
	pool.Start(ctx)
	defer pool.Stop()

	var created, duplicate, invalid, failed atomic.Int64
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		err := pool.SubmitWait(ctx, func(ctx context.Context) error {
			_, err := uc.Create(ctx, line)
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, domain.ErrConflict):
				duplicate.Add(1)
			case errors.Is(err, domain.ErrInvalidInput):
				invalid.Add(1)
			default:
				failed.Add(1)
			}
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := pool.Drain(ctx); err != nil {
		return nil, err
	}
	return &ImportSummary{
		Created:   created.Load(),
		Duplicate: duplicate.Load(),
		Invalid:   invalid.Load(),
		Failed:    failed.Load(),
	}, nil
}
