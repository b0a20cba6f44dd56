// Package testutil fakes the Postgres state table behind a database/sql
// connector so the postgres store can be exercised without a server.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Failures injects errors into the fake. A nil field means success.
type Failures struct {
	Ping   error
	Create error
	Begin  error
	Upsert error
	Commit error
	Select error
	Rows   error
}

// StateDB holds committed buckets and a log of every statement received.
// Writes made inside a transaction are only visible after commit.
type StateDB struct {
	mu         sync.Mutex
	buckets    map[string][]byte
	Statements []string
	Fail       Failures
	Commits    int
	Rollbacks  int
}

// NewStubDB returns a *sql.DB wired to a fresh StateDB.
func NewStubDB() (*sql.DB, *StateDB) {
	state := &StateDB{buckets: map[string][]byte{}}
	return sql.OpenDB(connector{state}), state
}

// Bucket returns the committed payload stored under name.
func (s *StateDB) Bucket(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[name]
	return b, ok
}

// Buckets lists committed bucket names in order.
func (s *StateDB) Buckets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.buckets))
}

// SetFailures replaces the injected failures.
func (s *StateDB) SetFailures(f Failures) {
	s.mu.Lock()
	s.Fail = f
	s.mu.Unlock()
}

type connector struct{ state *StateDB }

func (c connector) Connect(context.Context) (driver.Conn, error) { return &conn{state: c.state}, nil }
func (c connector) Driver() driver.Driver                        { return stubDriver{c.state} }

type stubDriver struct{ state *StateDB }

func (d stubDriver) Open(string) (driver.Conn, error) { return &conn{state: d.state}, nil }

type conn struct {
	state  *StateDB
	staged map[string][]byte
}

var errPrepare = errors.New("stub: prepared statements are not supported")

func (c *conn) Prepare(string) (driver.Stmt, error) { return nil, errPrepare }
func (c *conn) Close() error                        { return nil }
func (c *conn) Begin() (driver.Tx, error)           { return c.BeginTx(context.Background(), driver.TxOptions{}) }

func (c *conn) Ping(context.Context) error {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	return c.state.Fail.Ping
}

func (c *conn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()
	if c.state.Fail.Begin != nil {
		return nil, c.state.Fail.Begin
	}
	c.staged = map[string][]byte{}
	return tx{c}, nil
}

func (c *conn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	s := c.state
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Statements = append(s.Statements, query)
	switch verb(query) {
	case "CREATE":
		return driver.RowsAffected(0), s.Fail.Create
	case "INSERT":
		if s.Fail.Upsert != nil {
			return nil, s.Fail.Upsert
		}
		if len(args) != 2 {
			return nil, fmt.Errorf("stub: upsert wants 2 args, got %d", len(args))
		}
		bucket, ok := args[0].Value.(string)
		if !ok {
			return nil, fmt.Errorf("stub: bucket must be a string, got %T", args[0].Value)
		}
		payload, _ := args[1].Value.([]byte)
		target := s.buckets
		if c.staged != nil {
			target = c.staged
		}
		target[bucket] = slices.Clone(payload)
		return driver.RowsAffected(1), nil
	}
	return nil, fmt.Errorf("stub: unsupported statement %q", query)
}

func (c *conn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	s := c.state
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Statements = append(s.Statements, query)
	if verb(query) != "SELECT" {
		return nil, fmt.Errorf("stub: unsupported query %q", query)
	}
	if s.Fail.Select != nil {
		return nil, s.Fail.Select
	}
	out := &rows{err: s.Fail.Rows}
	for _, name := range slices.Sorted(maps.Keys(s.buckets)) {
		out.data = append(out.data, [2]driver.Value{name, slices.Clone(s.buckets[name])})
	}
	return out, nil
}

func verb(query string) string {
	head, _, _ := strings.Cut(strings.TrimSpace(query), " ")
	return strings.ToUpper(head)
}

type tx struct{ c *conn }

func (t tx) Commit() error {
	s := t.c.state
	s.mu.Lock()
	defer s.mu.Unlock()
	staged := t.c.staged
	t.c.staged = nil
	if s.Fail.Commit != nil {
		return s.Fail.Commit
	}
	maps.Copy(s.buckets, staged)
	s.Commits++
	return nil
}

func (t tx) Rollback() error {
	s := t.c.state
	s.mu.Lock()
	defer s.mu.Unlock()
	t.c.staged = nil
	s.Rollbacks++
	return nil
}

type rows struct {
	data [][2]driver.Value
	next int
	err  error
}

func (r *rows) Columns() []string { return []string{"bucket", "payload"} }
func (r *rows) Close() error      { return nil }

func (r *rows) Next(dest []driver.Value) error {
	if r.next == len(r.data) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	dest[0], dest[1] = r.data[r.next][0], r.data[r.next][1]
	r.next++
	return nil
}
