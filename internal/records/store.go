package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formtree/pkg/transport"
	"github.com/goliatone/go-formtree/pkg/values"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	// UnknownSubject is recorded when a submission names no subject.
	UnknownSubject = "PAT-UNKNOWN"

	// timeLayout is fixed width so created_at sorts lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrNotFound is returned by Get for unknown record ids.
var ErrNotFound = errors.New("records: record not found")

// Record is one stored submission.
type Record struct {
	ID        string         `json:"id"`
	FormID    string         `json:"archetype_id"`
	Subject   string         `json:"patient_id"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"created_at"`
}

// Store persists records through database/sql.
type Store struct {
	db     *sql.DB
	driver string
	keys   transport.Keys
	logger zerolog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithKeys sets the identifying keys used when Submit builds a payload.
func WithKeys(keys transport.Keys) Option {
	return func(s *Store) {
		s.keys = keys
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open connects to the database and creates the records table when missing.
// driver is "sqlite3" (alias "sqlite") or "postgres".
func Open(ctx context.Context, driver, dsn string, options ...Option) (*Store, error) {
	driver = normalizeDriver(driver)
	if driver == DriverSQLite && dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("records: open database: %w", err)
	}
	if driver == DriverSQLite {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	store, err := New(db, driver, options...)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an existing connection. Call Migrate before first use.
func New(db *sql.DB, driver string, options ...Option) (*Store, error) {
	driver = normalizeDriver(driver)
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("records: unsupported driver %q", driver)
	}
	s := &Store{
		db:     db,
		driver: driver,
		keys:   transport.DefaultKeys,
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func normalizeDriver(driver string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", DriverSQLite:
		return DriverSQLite
	case "postgresql", "pg", DriverPostgres:
		return DriverPostgres
	default:
		return driver
	}
}

// Migrate creates the records table.
func (s *Store) Migrate(ctx context.Context) error {
	dataType := "TEXT"
	if s.driver == DriverPostgres {
		dataType = "JSONB"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ehr_documents (
			id TEXT PRIMARY KEY,
			archetype_id TEXT NOT NULL,
			patient_id TEXT NOT NULL,
			data ` + dataType + ` NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ehr_documents_archetype ON ehr_documents (archetype_id, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("records: migrate: %w", err)
		}
	}
	return nil
}

// Save stores body, the full submission, under a new record id.
func (s *Store) Save(ctx context.Context, formID, subject string, body map[string]any) (Record, error) {
	if strings.TrimSpace(formID) == "" {
		return Record{}, errors.New("records: form id is required")
	}
	if subject == "" {
		subject = UnknownSubject
	}
	data, err := json.Marshal(body)
	if err != nil {
		return Record{}, fmt.Errorf("records: encode body: %w", err)
	}
	rec := Record{
		ID:        uuid.New().String(),
		FormID:    formID,
		Subject:   subject,
		Data:      body,
		CreatedAt: s.now().UTC(),
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO ehr_documents (id, archetype_id, patient_id, data, created_at) VALUES (?, ?, ?, ?, ?)`),
		rec.ID, rec.FormID, rec.Subject, string(data), rec.CreatedAt.Format(timeLayout))
	if err != nil {
		return Record{}, fmt.Errorf("records: insert: %w", err)
	}
	s.logger.Debug().Str("record_id", rec.ID).Str("form_id", formID).Msg("record stored")
	return rec, nil
}

// Get loads a record by id.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, archetype_id, patient_id, data, created_at FROM ehr_documents WHERE id = ?`), id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return rec, err
}

// List returns the newest records first, optionally filtered by form id. A
// non-positive limit returns every match.
func (s *Store) List(ctx context.Context, formID string, limit int) ([]Record, error) {
	query := `SELECT id, archetype_id, patient_id, data, created_at FROM ehr_documents`
	var args []any
	if formID != "" {
		query += ` WHERE archetype_id = ?`
		args = append(args, formID)
	}
	query += ` ORDER BY created_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("records: list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("records: list: %w", err)
	}
	return out, nil
}

// Submit implements transport.Submitter by storing the submission body
// locally.
func (s *Store) Submit(ctx context.Context, formID string, tree values.Tree, subject string) (transport.Result, error) {
	body, err := transport.Payload(tree, formID, subject, s.keys)
	if err != nil {
		return transport.Result{}, &transport.SubmissionError{Status: 400, Description: err.Error()}
	}
	rec, err := s.Save(ctx, formID, subject, body)
	if err != nil {
		return transport.Result{}, &transport.SubmissionError{Status: 500, Description: err.Error()}
	}
	return transport.Result{
		RecordID: rec.ID,
		FormID:   rec.FormID,
		Status:   "success",
		Message:  "Document saved successfully",
	}, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec     Record
		data    []byte
		created string
	)
	if err := row.Scan(&rec.ID, &rec.FormID, &rec.Subject, &data, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("records: scan: %w", err)
	}
	if err := json.Unmarshal(data, &rec.Data); err != nil {
		return Record{}, fmt.Errorf("records: decode data of %s: %w", rec.ID, err)
	}
	ts, err := time.Parse(timeLayout, created)
	if err != nil {
		return Record{}, fmt.Errorf("records: parse created_at of %s: %w", rec.ID, err)
	}
	rec.CreatedAt = ts
	return rec, nil
}

// rebind rewrites ? placeholders as $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
