package predictions_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/renalworks/nephroscan/internal/inference"
	"github.com/renalworks/nephroscan/internal/predictions"
	"github.com/renalworks/nephroscan/pkg/lifecycle"
	"github.com/renalworks/nephroscan/pkg/pagination"
	"github.com/renalworks/nephroscan/pkg/storage"
)

// fakeConn records every query and serves scripted results so repository
// tests can assert the exact SQL and arguments the ledger issues.
type fakeConn struct {
	queries []capturedQuery
	results []queryResult
}

type capturedQuery struct {
	sql  string
	args []driver.Value
}

type queryResult struct {
	columns []string
	rows    [][]driver.Value
	err     error
}

func (c *fakeConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) Begin() (driver.Tx, error) { return fakeTx{}, nil }

func (c *fakeConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	values := make([]driver.Value, len(args))
	for i, a := range args {
		values[i] = a.Value
	}
	c.queries = append(c.queries, capturedQuery{sql: query, args: values})

	if len(c.results) == 0 {
		return nil, errors.New("unscripted query: " + query)
	}
	next := c.results[0]
	c.results = c.results[1:]
	if next.err != nil {
		return nil, next.err
	}
	return &fakeRows{columns: next.columns, rows: next.rows}, nil
}

type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }

type fakeRows struct {
	columns []string
	rows    [][]driver.Value
	pos     int
}

func (r *fakeRows) Columns() []string { return r.columns }
func (r *fakeRows) Close() error      { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}

type fakeDriver struct{ conn *fakeConn }

func (d *fakeDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

var (
	ledgerDriver   = &fakeDriver{}
	registerDriver sync.Once
)

func newFakeDB(t *testing.T, conn *fakeConn) *sql.DB {
	t.Helper()

	registerDriver.Do(func() { sql.Register("ledgerfake", ledgerDriver) })
	ledgerDriver.conn = conn

	db, err := sql.Open("ledgerfake", "")
	if err != nil {
		t.Fatalf("open fake db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type fakeStorage struct {
	uploads   []string
	deletes   []string
	uploadErr error
}

func (s *fakeStorage) Start(*lifecycle.Coordinator) error { return nil }

func (s *fakeStorage) Upload(_ context.Context, key string, _ io.Reader, _ string) error {
	s.uploads = append(s.uploads, key)
	return s.uploadErr
}

func (s *fakeStorage) Open(context.Context, string) (*storage.Download, error) {
	return nil, storage.ErrNotFound
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	s.deletes = append(s.deletes, key)
	return nil
}

func (s *fakeStorage) Exists(context.Context, string) (bool, error) { return true, nil }

type stubEngine struct {
	result *inference.Result
	err    error
}

func (e *stubEngine) Classify(context.Context, []byte) (*inference.Result, error) {
	return e.result, e.err
}

func stoneResult() *inference.Result {
	return &inference.Result{
		Label:      inference.LabelStone,
		Confidence: 91.27,
		Confidences: map[inference.Label]float64{
			inference.LabelCyst:   2.11,
			inference.LabelNormal: 4.5,
			inference.LabelStone:  91.27,
			inference.LabelTumor:  2.12,
		},
	}
}

func newLedger(t *testing.T, conn *fakeConn, store *fakeStorage, engine inference.Engine) predictions.System {
	t.Helper()

	return predictions.New(
		newFakeDB(t, conn),
		store,
		engine,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

var predictionColumns = []string{"id", "subject", "label", "confidence", "image_key", "created_at"}

func predictionRow(subject string, created time.Time) []driver.Value {
	id, _ := uuid.NewV7()
	return []driver.Value{
		id.String(),
		subject,
		string(inference.LabelStone),
		91.27,
		"scans/" + id.String() + "/scan.png",
		created,
	}
}

func TestRepositoryListForScopesSubject(t *testing.T) {
	newer := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	conn := &fakeConn{
		results: []queryResult{
			{columns: []string{"count"}, rows: [][]driver.Value{{int64(2)}}},
			{columns: predictionColumns, rows: [][]driver.Value{
				predictionRow("alice", newer),
				predictionRow("alice", older),
			}},
		},
	}

	sys := newLedger(t, conn, &fakeStorage{}, &stubEngine{result: stoneResult()})

	result, err := sys.ListFor(t.Context(), "alice", pagination.PageRequest{}, predictions.Filters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(conn.queries) != 2 {
		t.Fatalf("queries = %d, want count then page", len(conn.queries))
	}

	countQ := conn.queries[0]
	wantCount := "SELECT COUNT(*) FROM public.predictions p WHERE p.subject = $1"
	if countQ.sql != wantCount {
		t.Errorf("count sql = %q, want %q", countQ.sql, wantCount)
	}
	if len(countQ.args) != 1 || countQ.args[0] != "alice" {
		t.Errorf("count args = %v, want [alice]", countQ.args)
	}

	pageQ := conn.queries[1]
	if !strings.Contains(pageQ.sql, "WHERE p.subject = $1") {
		t.Errorf("page sql missing subject condition: %q", pageQ.sql)
	}
	if !strings.Contains(pageQ.sql, "ORDER BY p.created_at DESC") {
		t.Errorf("page sql missing default sort: %q", pageQ.sql)
	}
	if !strings.Contains(pageQ.sql, "LIMIT 20 OFFSET 0") {
		t.Errorf("page sql missing limit/offset: %q", pageQ.sql)
	}
	if len(pageQ.args) != 1 || pageQ.args[0] != "alice" {
		t.Errorf("page args = %v, want [alice]", pageQ.args)
	}

	if result.Total != 2 || len(result.Data) != 2 {
		t.Fatalf("result = total %d, %d records, want 2/2", result.Total, len(result.Data))
	}
	if result.Data[0].CreatedAt.Before(result.Data[1].CreatedAt) {
		t.Error("records should be most recent first")
	}
	for i, p := range result.Data {
		if p.Subject != "alice" {
			t.Errorf("record %d subject = %q, want alice", i, p.Subject)
		}
	}
}

func TestRepositoryListForIgnoresUnmappedSort(t *testing.T) {
	conn := &fakeConn{
		results: []queryResult{
			{columns: []string{"count"}, rows: [][]driver.Value{{int64(0)}}},
			{columns: predictionColumns},
		},
	}

	sys := newLedger(t, conn, &fakeStorage{}, &stubEngine{result: stoneResult()})

	page := pagination.PageRequestFromQuery(
		url.Values{"sort": {"created_at"}},
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)

	if _, err := sys.ListFor(t.Context(), "alice", page, predictions.Filters{}); err != nil {
		t.Fatalf("list: %v", err)
	}

	pageQ := conn.queries[1]
	if !strings.Contains(pageQ.sql, "ORDER BY p.created_at DESC") {
		t.Errorf("unmapped sort should fall back to default order: %q", pageQ.sql)
	}
}

func TestRepositoryClassifyPersistsRecord(t *testing.T) {
	created := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	conn := &fakeConn{
		results: []queryResult{
			{columns: predictionColumns, rows: [][]driver.Value{
				predictionRow("alice", created),
			}},
		},
	}
	store := &fakeStorage{}

	sys := newLedger(t, conn, store, &stubEngine{result: stoneResult()})

	result, err := sys.Classify(t.Context(), "alice", predictions.ClassifyCommand{
		Data:        []byte("image-bytes"),
		Filename:    "scan.png",
		ContentType: "image/png",
	})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	if len(conn.queries) != 1 || !strings.Contains(conn.queries[0].sql, "INSERT INTO predictions") {
		t.Fatalf("queries = %+v, want single insert", conn.queries)
	}

	args := conn.queries[0].args
	if len(args) != 5 {
		t.Fatalf("insert args = %d, want 5", len(args))
	}
	if args[1] != "alice" {
		t.Errorf("subject arg = %v, want alice", args[1])
	}
	if args[2] != string(inference.LabelStone) {
		t.Errorf("label arg = %v, want Stone", args[2])
	}
	if args[3] != 91.27 {
		t.Errorf("confidence arg = %v, want 91.27", args[3])
	}

	key, ok := args[4].(string)
	if !ok || !strings.HasPrefix(key, "scans/") || !strings.HasSuffix(key, "/scan.png") {
		t.Errorf("storage key arg = %v, want scans/<id>/scan.png", args[4])
	}

	if len(store.uploads) != 1 || store.uploads[0] != key {
		t.Errorf("uploads = %v, want the inserted key %q", store.uploads, key)
	}
	if len(store.deletes) != 0 {
		t.Errorf("deletes = %v, want none on success", store.deletes)
	}
	if len(result.Confidences) != 4 {
		t.Errorf("confidences length = %d, want 4", len(result.Confidences))
	}
}

func TestRepositoryClassifyCompensatesFailedInsert(t *testing.T) {
	conn := &fakeConn{
		results: []queryResult{
			{err: errors.New("connection reset")},
		},
	}
	store := &fakeStorage{}

	sys := newLedger(t, conn, store, &stubEngine{result: stoneResult()})

	_, err := sys.Classify(t.Context(), "alice", predictions.ClassifyCommand{
		Data:        []byte("image-bytes"),
		Filename:    "scan.png",
		ContentType: "image/png",
	})
	if err == nil {
		t.Fatal("expected insert failure to surface")
	}

	if len(store.uploads) != 1 {
		t.Fatalf("uploads = %v, want exactly one", store.uploads)
	}
	if len(store.deletes) != 1 || store.deletes[0] != store.uploads[0] {
		t.Errorf("deletes = %v, want compensating delete of %q", store.deletes, store.uploads[0])
	}
}

func TestRepositoryClassifyUploadFailureSkipsInsert(t *testing.T) {
	conn := &fakeConn{}
	store := &fakeStorage{uploadErr: errors.New("storage unavailable")}

	sys := newLedger(t, conn, store, &stubEngine{result: stoneResult()})

	_, err := sys.Classify(t.Context(), "alice", predictions.ClassifyCommand{
		Data:        []byte("image-bytes"),
		Filename:    "scan.png",
		ContentType: "image/png",
	})
	if err == nil {
		t.Fatal("expected upload failure to surface")
	}

	if len(conn.queries) != 0 {
		t.Errorf("queries = %+v, want none when the upload fails", conn.queries)
	}
}
