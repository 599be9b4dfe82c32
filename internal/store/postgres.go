package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/seftcorp/leadops/internal/db"
	"github.com/seftcorp/leadops/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 1
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			pgxCfg.MaxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			pgxCfg.MinConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id             TEXT PRIMARY KEY,
	raw_phone      TEXT NOT NULL DEFAULT '',
	name           TEXT NOT NULL DEFAULT '',
	branch_origin  TEXT NOT NULL DEFAULT '',
	payment_status TEXT NOT NULL DEFAULT '',
	occurred_at    TIMESTAMPTZ NOT NULL,
	notes          TEXT NOT NULL DEFAULT '',
	share_date     TIMESTAMPTZ,
	source         TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_occurred ON leads(occurred_at, id);
CREATE INDEX IF NOT EXISTS idx_leads_branch_origin ON leads(branch_origin);

CREATE TABLE IF NOT EXISTS branch_assignments (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	duplicate_key   TEXT NOT NULL,
	duplicate_mode  TEXT NOT NULL,
	assigned_branch TEXT NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (duplicate_key, duplicate_mode)
);
`

// leadColumns is the column order shared by inserts and selects.
var leadColumns = []string{
	"id", "raw_phone", "name", "branch_origin", "payment_status",
	"occurred_at", "notes", "share_date", "source",
}

// leadRefreshColumns are overwritten when a lead is re-imported. Operator
// edits (notes, share_date) survive a re-import.
var leadRefreshColumns = []string{
	"raw_phone", "name", "branch_origin", "payment_status", "occurred_at", "source",
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.LeadRecord, error) {
	query := `SELECT ` + strings.Join(leadColumns, ", ") + ` FROM leads WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Branch != "" {
		query += fmt.Sprintf(` AND branch_origin ILIKE $%d`, argIdx)
		args = append(args, "%"+filter.Branch+"%")
		argIdx++
	}
	query += ` ORDER BY occurred_at, id`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
		argIdx++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.LeadRecord
	for rows.Next() {
		var l model.LeadRecord
		var status string
		if err := rows.Scan(&l.ID, &l.RawPhone, &l.Name, &l.BranchOrigin, &status,
			&l.OccurredAt, &l.Notes, &l.ShareDate, &l.Source); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		l.PaymentStatus = model.PaymentStatus(status)
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) UpsertLeads(ctx context.Context, leads []model.LeadRecord) (int64, error) {
	leads = dedupeLeads(leads)
	rows := make([][]any, len(leads))
	for i, l := range leads {
		rows[i] = []any{
			l.ID, l.RawPhone, l.Name, l.BranchOrigin, string(l.PaymentStatus),
			l.OccurredAt, l.Notes, l.ShareDate, l.Source,
		}
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "leads",
		Columns:      leadColumns,
		ConflictKeys: []string{"id"},
		UpdateCols:   leadRefreshColumns,
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert leads")
	}
	return n, nil
}

func (s *PostgresStore) UpdateLead(ctx context.Context, id string, upd model.LeadUpdate) error {
	sets := []string{}
	args := []any{}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.Status != nil {
		add("payment_status", string(*upd.Status))
	}
	if upd.Notes != nil {
		add("notes", *upd.Notes)
	}
	if upd.ShareDate != nil {
		add("share_date", *upd.ShareDate)
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now().UTC())
	args = append(args, id)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE leads SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args)),
		args...,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "lead %s", id)
	}
	return nil
}

func (s *PostgresStore) ListAssignments(ctx context.Context, mode model.ClusterMode) ([]model.BranchAssignment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, duplicate_key, duplicate_mode, assigned_branch, updated_at
		 FROM branch_assignments WHERE duplicate_mode = $1 ORDER BY updated_at, id`,
		string(mode),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list assignments")
	}
	defer rows.Close()

	var out []model.BranchAssignment
	for rows.Next() {
		var a model.BranchAssignment
		var m, b string
		if err := rows.Scan(&a.ID, &a.DuplicateKey, &m, &b, &a.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan assignment")
		}
		a.DuplicateMode = model.ClusterMode(m)
		a.AssignedBranch = model.Branch(b)
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list assignments iterate")
}

func (s *PostgresStore) UpsertAssignment(ctx context.Context, a model.BranchAssignment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO branch_assignments (id, duplicate_key, duplicate_mode, assigned_branch, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (duplicate_key, duplicate_mode) DO UPDATE SET assigned_branch = $4, updated_at = $5`,
		a.ID, a.DuplicateKey, string(a.DuplicateMode), string(a.AssignedBranch), a.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert assignment %s/%s", a.DuplicateMode, a.DuplicateKey)
}

func (s *PostgresStore) DeleteAssignment(ctx context.Context, key string, mode model.ClusterMode) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM branch_assignments WHERE duplicate_key = $1 AND duplicate_mode = $2`,
		key, string(mode),
	)
	return eris.Wrapf(err, "postgres: delete assignment %s/%s", mode, key)
}
