package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/AngelCh415/GSC_GO/internal/models"
)

const dateLayout = "2006-01-02"

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS search_rows (
	date        TEXT    NOT NULL,
	query       TEXT    NOT NULL DEFAULT '',
	page        TEXT    NOT NULL DEFAULT '',
	device      TEXT    NOT NULL DEFAULT '',
	country     TEXT    NOT NULL DEFAULT '',
	clicks      INTEGER NOT NULL DEFAULT 0,
	impressions INTEGER NOT NULL DEFAULT 0,
	ctr         REAL    NOT NULL DEFAULT 0,
	position    REAL    NOT NULL DEFAULT 0,
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (date, query, page, device, country)
);

CREATE INDEX IF NOT EXISTS idx_search_rows_date ON search_rows(date);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const upsertRow = `
INSERT INTO search_rows (date, query, page, device, country, clicks, impressions, ctr, position, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (date, query, page, device, country) DO UPDATE SET
	clicks = excluded.clicks,
	impressions = excluded.impressions,
	ctr = excluded.ctr,
	position = excluded.position,
	updated_at = excluded.updated_at`

func (s *SQLiteStore) Upsert(ctx context.Context, records []models.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert")
	}
	defer tx.Rollback() //nolint:errcheck

	before, err := count(ctx, tx)
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, upsertRow)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range records {
		r = clean(r)
		if _, err := stmt.ExecContext(ctx,
			r.Date.Format(dateLayout), r.Query, r.Page, r.Device, r.Country,
			r.Clicks, r.Impressions, r.CTR, r.Position, now,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert row %s", r.Key())
		}
	}
	after, err := count(ctx, tx)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert")
	}
	return after - before, nil
}

func count(ctx context.Context, tx *sql.Tx) (int, error) {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM search_rows`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count rows")
	}
	return n, nil
}

const selectRows = `SELECT date, query, page, device, country, clicks, impressions, ctr, position FROM search_rows`

func (s *SQLiteStore) Table(ctx context.Context) (models.Table, error) {
	recs, err := s.scan(ctx, selectRows+` ORDER BY date, query, page, device, country`)
	if err != nil {
		return models.Table{}, err
	}
	return models.NewTable(Columns, recs), nil
}

func (s *SQLiteStore) Query(ctx context.Context, from, to time.Time) ([]models.Record, error) {
	return s.scan(ctx, selectRows+` WHERE date >= ? AND date <= ? ORDER BY date, query, page, device, country`,
		models.Day(from).Format(dateLayout), models.Day(to).Format(dateLayout))
}

func (s *SQLiteStore) scan(ctx context.Context, q string, args ...any) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query rows")
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var (
			r    models.Record
			date string
		)
		if err := rows.Scan(&date, &r.Query, &r.Page, &r.Device, &r.Country, &r.Clicks, &r.Impressions, &r.CTR, &r.Position); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan row")
		}
		if d, err := time.Parse(dateLayout, date); err == nil {
			r.Date = d
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate rows")
}
