package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/seftcorp/leadops/internal/model"
)

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
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	// One writer at a time; pragmas are per connection.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id             TEXT PRIMARY KEY,
	raw_phone      TEXT NOT NULL DEFAULT '',
	name           TEXT NOT NULL DEFAULT '',
	branch_origin  TEXT NOT NULL DEFAULT '',
	payment_status TEXT NOT NULL DEFAULT '',
	occurred_at    DATETIME NOT NULL,
	notes          TEXT NOT NULL DEFAULT '',
	share_date     DATETIME,
	source         TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_leads_occurred ON leads(occurred_at, id);
CREATE INDEX IF NOT EXISTS idx_leads_branch_origin ON leads(branch_origin);

CREATE TABLE IF NOT EXISTS branch_assignments (
	id              TEXT PRIMARY KEY,
	duplicate_key   TEXT NOT NULL,
	duplicate_mode  TEXT NOT NULL,
	assigned_branch TEXT NOT NULL,
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (duplicate_key, duplicate_mode)
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.LeadRecord, error) {
	query := `SELECT ` + strings.Join(leadColumns, ", ") + ` FROM leads WHERE 1=1`
	args := []any{}

	if filter.Branch != "" {
		query += ` AND branch_origin LIKE ?`
		args = append(args, "%"+filter.Branch+"%")
	}
	query += ` ORDER BY occurred_at, id`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close() //nolint:errcheck

	var leads []model.LeadRecord
	for rows.Next() {
		var l model.LeadRecord
		var status string
		var share sql.NullTime
		if err := rows.Scan(&l.ID, &l.RawPhone, &l.Name, &l.BranchOrigin, &status,
			&l.OccurredAt, &l.Notes, &share, &l.Source); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		l.PaymentStatus = model.PaymentStatus(status)
		if share.Valid {
			t := share.Time
			l.ShareDate = &t
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) UpsertLeads(ctx context.Context, leads []model.LeadRecord) (int64, error) {
	if len(leads) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO leads (id, raw_phone, name, branch_origin, payment_status, occurred_at, notes, share_date, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   raw_phone = excluded.raw_phone, name = excluded.name, branch_origin = excluded.branch_origin,
		   payment_status = excluded.payment_status, occurred_at = excluded.occurred_at,
		   source = excluded.source, updated_at = datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert lead")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, l := range leads {
		var share any
		if l.ShareDate != nil {
			share = l.ShareDate.UTC()
		}
		res, err := stmt.ExecContext(ctx,
			l.ID, l.RawPhone, l.Name, l.BranchOrigin, string(l.PaymentStatus),
			l.OccurredAt.UTC(), l.Notes, share, l.Source,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert lead %s", l.ID)
		}
		affected, _ := res.RowsAffected()
		n += affected
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit leads")
	}
	return n, nil
}

func (s *SQLiteStore) UpdateLead(ctx context.Context, id string, upd model.LeadUpdate) error {
	sets := []string{}
	args := []any{}
	if upd.Status != nil {
		sets = append(sets, "payment_status = ?")
		args = append(args, string(*upd.Status))
	}
	if upd.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *upd.Notes)
	}
	if upd.ShareDate != nil {
		sets = append(sets, "share_date = ?")
		args = append(args, upd.ShareDate.UTC())
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = datetime('now')")
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead %s", id)
	}
	return checkRowsAffected(res, "lead", id)
}

func (s *SQLiteStore) ListAssignments(ctx context.Context, mode model.ClusterMode) ([]model.BranchAssignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, duplicate_key, duplicate_mode, assigned_branch, updated_at
		 FROM branch_assignments WHERE duplicate_mode = ? ORDER BY updated_at, id`,
		string(mode),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list assignments")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.BranchAssignment
	for rows.Next() {
		var a model.BranchAssignment
		var m, b string
		if err := rows.Scan(&a.ID, &a.DuplicateKey, &m, &b, &a.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan assignment")
		}
		a.DuplicateMode = model.ClusterMode(m)
		a.AssignedBranch = model.Branch(b)
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list assignments iterate")
}

func (s *SQLiteStore) UpsertAssignment(ctx context.Context, a model.BranchAssignment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO branch_assignments (id, duplicate_key, duplicate_mode, assigned_branch, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (duplicate_key, duplicate_mode) DO UPDATE SET
		   assigned_branch = excluded.assigned_branch, updated_at = excluded.updated_at`,
		a.ID, a.DuplicateKey, string(a.DuplicateMode), string(a.AssignedBranch), a.UpdatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert assignment %s/%s", a.DuplicateMode, a.DuplicateKey)
}

func (s *SQLiteStore) DeleteAssignment(ctx context.Context, key string, mode model.ClusterMode) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM branch_assignments WHERE duplicate_key = ? AND duplicate_mode = ?`,
		key, string(mode),
	)
	return eris.Wrapf(err, "sqlite: delete assignment %s/%s", mode, key)
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}
