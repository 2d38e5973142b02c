// Package storage is the SQLite-backed run-history audit trail: a compute
// run invoked with --record writes its rows here so a later invocation can answer
// "what did we compute for year X last time" without rerunning the
// engine. Ported from the teacher's src/database/database.go
// (InitDB/RunMigrations), adapted from a file://-path migration source
// to an embedded one (go:embed) so the CLI binary carries its own schema
// rather than depending on a migrations directory existing next to it at
// runtime, and narrowed from a shared global *sql.DB to an owned Store
// value.
package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tugsousa/taxlots/internal/aggregate"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store owns a SQLite connection and the run-history schema.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// applies any pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: opening %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("storage: pinging %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("storage: reading embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("storage: creating sqlite migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("storage: creating migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("storage: applying migrations: %w", err)
	}
	return nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRows persists one aggregate.Report's rows for a given run,
// associating each with a fresh run ID for later correlation.
func (s *Store) RecordRows(taxYear int, rows []aggregate.Row) error {
	stmt, err := s.db.Prepare(`
		INSERT INTO runs (id, product_id, display_name, tax_year, status, income, cost, fees, profit, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage: preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		errMsg := ""
		if row.Err != nil {
			errMsg = row.Err.Error()
		}
		if _, err := stmt.Exec(
			uuid.New().String(), row.ProductID, row.DisplayName, taxYear, row.Status.String(),
			row.Income.String(), row.Cost.String(), row.Fees.String(), row.Profit.String(), errMsg,
		); err != nil {
			return fmt.Errorf("storage: inserting run row for %s: %w", row.ProductID, err)
		}
	}
	return nil
}

// RecordAudit persists one engine.AuditEvent.
func (s *Store) RecordAudit(productID, kind, message string, occurredAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO audit_events (id, product_id, kind, message, occurred_at)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.New().String(), productID, kind, message, occurredAt)
	if err != nil {
		return fmt.Errorf("storage: inserting audit event for %s: %w", productID, err)
	}
	return nil
}

// RunRow is one persisted row from a prior run.
type RunRow struct {
	ID           string
	ProductID    string
	DisplayName  string
	TaxYear      int
	Status       string
	Income       string
	Cost         string
	Fees         string
	Profit       string
	ErrorMessage string
	CreatedAt    time.Time
}

// ListRuns returns every persisted row for a given tax year, most recent
// first.
func (s *Store) ListRuns(taxYear int) ([]RunRow, error) {
	rows, err := s.db.Query(`
		SELECT id, product_id, display_name, tax_year, status, income, cost, fees, profit, error_message, created_at
		FROM runs WHERE tax_year = ? ORDER BY created_at DESC
	`, taxYear)
	if err != nil {
		return nil, fmt.Errorf("storage: querying runs for year %d: %w", taxYear, err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.ID, &r.ProductID, &r.DisplayName, &r.TaxYear, &r.Status,
			&r.Income, &r.Cost, &r.Fees, &r.Profit, &r.ErrorMessage, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scanning run row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
