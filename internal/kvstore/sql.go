package kvstore

import "context"

// Table is the slice of a database store that holds kv_entries.
type Table interface {
	GetKV(ctx context.Context, key string) (string, bool, error)
	SetKV(ctx context.Context, key, value string) error
	DeleteKV(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// SQL is a Backend on the kv_entries table of the main database.
type SQL struct {
	table Table
	name  string
}

// NewSQL wraps a database store. name appears in logs (e.g. "sqlite").
func NewSQL(table Table, name string) *SQL {
	if name == "" {
		name = "sql"
	}
	return &SQL{table: table, name: name}
}

func (s *SQL) Get(ctx context.Context, key string) (string, bool, error) {
	return s.table.GetKV(ctx, key)
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	return s.table.SetKV(ctx, key, value)
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	return s.table.DeleteKV(ctx, key)
}

func (s *SQL) Ping(ctx context.Context) error {
	return s.table.Ping(ctx)
}

func (s *SQL) Name() string { return s.name }
