package sources

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec"
)

type pgRecord struct {
	format     string
	compressed bool
	body       []byte
}

// fakeDB answers the statements Postgres issues from an in-memory table.
type fakeDB struct {
	table map[anatomyspec.Key]pgRecord
	execs int
	fail  error
}

func newFakeDB() *fakeDB {
	return &fakeDB{table: make(map[anatomyspec.Key]pgRecord)}
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs++
	if f.fail != nil {
		return pgconn.CommandTag{}, f.fail
	}
	switch sql {
	case schemaSQL:
		return pgconn.NewCommandTag("CREATE TABLE"), nil
	case upsertSQL:
		key := anatomyspec.Key{Template: args[0].(string), Network: args[1].(string)}
		f.table[key] = pgRecord{format: args[2].(string), compressed: args[3].(bool), body: args[4].([]byte)}
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case deleteSQL:
		key := anatomyspec.Key{Template: args[0].(string), Network: args[1].(string)}
		if _, ok := f.table[key]; !ok {
			return pgconn.NewCommandTag("DELETE 0"), nil
		}
		delete(f.table, key)
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	return pgconn.CommandTag{}, fmt.Errorf("unexpected exec: %s", sql)
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if f.fail != nil {
		return fakeRow{err: f.fail}
	}
	if sql != selectSQL {
		return fakeRow{err: fmt.Errorf("unexpected query: %s", sql)}
	}
	rec, ok := f.table[anatomyspec.Key{Template: args[0].(string), Network: args[1].(string)}]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{values: []any{rec.format, rec.compressed, rec.body}}
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	if sql != listSQL {
		return nil, fmt.Errorf("unexpected query: %s", sql)
	}
	keys := make(map[anatomyspec.Key]struct{}, len(f.table))
	for k := range f.table {
		keys[k] = struct{}{}
	}
	rows := &fakeRows{}
	for _, k := range sortedKeys(keys) {
		rows.values = append(rows.values, []any{k.Template, k.Network})
	}
	return rows, nil
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanValues(r.values, dest)
}

type fakeRows struct {
	pgx.Rows
	values [][]any
	pos    int
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error { return scanValues(r.values[r.pos-1], dest) }
func (r *fakeRows) Err() error             { return nil }
func (r *fakeRows) Close()                 { r.closed = true }

func scanValues(values, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values into %d targets", len(values), len(dest))
	}
	for i, v := range values {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *bool:
			*d = v.(bool)
		case *[]byte:
			*d = v.([]byte)
		default:
			return fmt.Errorf("scan: unsupported target %T", d)
		}
	}
	return nil
}

func newTestPostgres(t *testing.T) (*Postgres, *fakeDB) {
	t.Helper()
	db := newFakeDB()
	p := &Postgres{db: db}
	require.NoError(t, p.migrate(context.Background()))
	return p, db
}

func nervousDocument(t *testing.T) *anatomyspec.Document {
	t.Helper()
	doc, err := anatomyspec.Parse([]byte(nervousJSON), anatomyspec.FormatJSON)
	require.NoError(t, err)
	require.NoError(t, doc.Bind(anatomyspec.Key{Template: "human", Network: "nervous"}))
	return doc
}

func TestPostgresPutFetch(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		format   anatomyspec.Format
		compress bool
	}{
		{anatomyspec.FormatJSON, false},
		{anatomyspec.FormatYAML, true},
	} {
		t.Run(fmt.Sprintf("%s compressed=%v", tc.format, tc.compress), func(t *testing.T) {
			p, db := newTestPostgres(t)
			require.NoError(t, p.Put(ctx, nervousDocument(t), tc.format, tc.compress))

			rec := db.table[anatomyspec.Key{Template: "human", Network: "nervous"}]
			assert.Equal(t, string(tc.format), rec.format)
			assert.Equal(t, tc.compress, rec.compressed)

			doc, err := p.Fetch(ctx, "human", "nervous")
			require.NoError(t, err)
			n, err := doc.Build()
			require.NoError(t, err)
			assert.Equal(t, 2, n.Len())
		})
	}
}

func TestPostgresFetchNotFound(t *testing.T) {
	p, _ := newTestPostgres(t)

	_, err := p.Fetch(context.Background(), "human", "nervous")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestPostgresPutRejectsInvalid(t *testing.T) {
	p, db := newTestPostgres(t)
	execs := db.execs

	err := p.Put(context.Background(), &anatomyspec.Document{Template: "human", Network: "nervous"}, anatomyspec.FormatJSON, false)
	assert.Error(t, err)
	assert.Equal(t, execs, db.execs, "invalid documents never reach the database")
}

func TestPostgresListDelete(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPostgres(t)

	for _, key := range []anatomyspec.Key{{Template: "mouse", Network: "nervous"}, {Template: "human", Network: "nervous"}} {
		doc := nervousDocument(t)
		doc.Template = key.Template
		require.NoError(t, p.Put(ctx, doc, anatomyspec.FormatJSON, false))
	}

	keys, err := p.List(ctx)
	require.NoError(t, err)
	require.True(t, sort.SliceIsSorted(keys, func(i, j int) bool { return keys[i].Template < keys[j].Template }))
	assert.Len(t, keys, 2)

	ok, err := p.Delete(ctx, anatomyspec.Key{Template: "mouse", Network: "nervous"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Delete(ctx, anatomyspec.Key{Template: "mouse", Network: "nervous"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgresErrors(t *testing.T) {
	ctx := context.Background()
	p, db := newTestPostgres(t)
	db.fail = errors.New("connection reset")

	_, err := p.Fetch(ctx, "human", "nervous")
	assert.ErrorIs(t, err, db.fail)
	assert.NotErrorIs(t, err, ErrTemplateNotFound)

	_, err = p.List(ctx)
	assert.ErrorIs(t, err, db.fail)

	assert.NoError(t, p.Ping(ctx), "no pool to ping")
	assert.NoError(t, p.Close())
}
