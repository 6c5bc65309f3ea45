// Package memory is an in-process Code Store and Log Store. Transactions are
// serialized store-wide, which gives FindByCodeForUpdate the same exclusion a
// row lock gives the SQL adapters. Used in dev mode and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"activation-gate/internal/domain"
	"activation-gate/internal/domain/model"
	"activation-gate/internal/domain/ports/repository"
)

var (
	_ repository.TransactionManager       = (*Store)(nil)
	_ repository.ActivationCodeRepository = (*Store)(nil)
	_ repository.ActivationLogRepository  = (*Store)(nil)
)

type Store struct {
	txMu sync.Mutex

	mu         sync.RWMutex
	codes      map[string]*model.ActivationCode
	logs       []*model.LogEntry
	nextCodeID int64
	nextLogID  int64
}

func NewStore() *Store {
	return &Store{codes: make(map[string]*model.ActivationCode)}
}

// txn journals undo steps so a failed callback leaves the store untouched.
type txn struct {
	undo []func()
}

func (t *txn) record(fn func()) {
	if t != nil {
		t.undo = append(t.undo, fn)
	}
}

func asTxn(tx repository.Tx) *txn {
	t, _ := tx.(*txn)
	return t
}

// WithTx runs fn while holding the store-wide transaction lock.
func (s *Store) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	t := &txn{}
	if err := fn(ctx, t); err != nil {
		s.mu.Lock()
		for i := len(t.undo) - 1; i >= 0; i-- {
			t.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// --- Code Store ---

func (s *Store) Insert(ctx context.Context, tx repository.Tx, code *model.ActivationCode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.codes[code.Code]; ok {
		return domain.ErrAlreadyExists
	}
	s.nextCodeID++
	code.ID = s.nextCodeID
	s.codes[code.Code] = code.Clone()
	key := code.Code
	asTxn(tx).record(func() { delete(s.codes, key) })
	return nil
}

func (s *Store) FindByCode(ctx context.Context, _ repository.Tx, code string) (*model.ActivationCode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.codes[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *Store) FindByCodeForUpdate(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	return s.FindByCode(ctx, tx, code)
}

func (s *Store) CompareAndSwap(ctx context.Context, tx repository.Tx, next *model.ActivationCode, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.codes[next.Code]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	stored := next.Clone()
	stored.ID = cur.ID
	stored.CreatedAt = cur.CreatedAt
	s.codes[next.Code] = stored
	asTxn(tx).record(func() { s.codes[cur.Code] = cur })
	return nil
}

func (s *Store) Delete(ctx context.Context, tx repository.Tx, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.codes[code]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.codes, code)
	asTxn(tx).record(func() { s.codes[cur.Code] = cur })
	return nil
}

func (s *Store) List(ctx context.Context, _ repository.Tx, f repository.CodeFilter, offset, limit int) ([]*model.ActivationCode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	matched := make([]*model.ActivationCode, 0, len(s.codes))
	for _, c := range s.codes {
		if f.State == "" || c.State == f.State {
			matched = append(matched, c.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	if offset >= len(matched) {
		return []*model.ActivationCode{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (s *Store) Count(ctx context.Context, _ repository.Tx, f repository.CodeFilter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.codes {
		if f.State == "" || c.State == f.State {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountByState(ctx context.Context, _ repository.Tx) (map[model.CodeState]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[model.CodeState]int{
		model.CodeStateAvailable: 0,
		model.CodeStateUsed:      0,
		model.CodeStateDisabled:  0,
	}
	for _, c := range s.codes {
		out[c.State]++
	}
	return out, nil
}

// --- Log Store ---

func (s *Store) Append(ctx context.Context, tx repository.Tx, entry *model.LogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLogID++
	entry.ID = s.nextLogID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	cp := *entry
	cp.Context = copyContext(entry.Context)
	s.logs = append(s.logs, &cp)
	id := cp.ID
	asTxn(tx).record(func() {
		for i, e := range s.logs {
			if e.ID == id {
				s.logs = append(s.logs[:i], s.logs[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (s *Store) ListRecent(ctx context.Context, _ repository.Tx, code string, limit int) ([]*model.LogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.LogEntry, 0, limit)
	for i := len(s.logs) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		e := s.logs[i]
		if code != "" && e.Code != code {
			continue
		}
		cp := *e
		cp.Context = copyContext(e.Context)
		out = append(out, &cp)
	}
	return out, nil
}

func copyContext(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
