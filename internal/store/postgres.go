package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/odysseus/internal/db"
	"github.com/sells-group/odysseus/internal/model"
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

// Hot-path statements, prepared on each new connection and executed by name.
const (
	stmtGetCompany   = "get_company"
	stmtUpdateStatus = "update_status"
	stmtUpdateVetted = "update_vetted"
	stmtListByStatus = "list_by_status"
)

var preparedStatements = map[string]string{
	stmtGetCompany:   `SELECT id, domain, name, group_name, status, apollo_data, website_url, company_linkedin_url, scores, created_at, updated_at FROM companies WHERE id = $1`,
	stmtUpdateStatus: `UPDATE companies SET status = $1, updated_at = $2 WHERE id = $3`,
	stmtUpdateVetted: `UPDATE companies SET name = $1, status = $2, apollo_data = $3, website_url = $4, company_linkedin_url = $5, scores = $6, updated_at = $7 WHERE id = $8`,
	stmtListByStatus: `SELECT id, domain, name, group_name, status, apollo_data, website_url, company_linkedin_url, scores, created_at, updated_at FROM companies WHERE status = $1 ORDER BY id LIMIT $2`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

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

// Pool returns the underlying database pool for subsystems that need direct
// query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id                   BIGSERIAL PRIMARY KEY,
	domain               TEXT NOT NULL UNIQUE,
	name                 TEXT,
	group_name           TEXT,
	status               TEXT NOT NULL DEFAULT 'New',
	apollo_data          JSONB,
	website_url          TEXT,
	company_linkedin_url TEXT,
	scores               JSONB,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_companies_status ON companies(status);
CREATE INDEX IF NOT EXISTS idx_companies_domain ON companies(domain);
`

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

func (s *PostgresStore) GetCompany(ctx context.Context, id int64) (*model.Company, error) {
	var c model.Company
	var name, groupName, websiteURL, linkedinURL *string
	var dossierJSON, scoresJSON []byte

	err := s.pool.QueryRow(ctx, stmtGetCompany, id).Scan(&c.ID, &c.Domain, &name, &groupName, &c.Status, &dossierJSON, &websiteURL, &linkedinURL, &scoresJSON, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: get company %d", id)
		}
		return nil, eris.Wrapf(err, "postgres: get company %d", id)
	}

	c.Name = deref(name)
	c.GroupName = deref(groupName)
	c.WebsiteURL = deref(websiteURL)
	c.LinkedInURL = deref(linkedinURL)

	if len(dossierJSON) > 0 {
		if err := json.Unmarshal(dossierJSON, &c.Dossier); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal dossier for company %d", id)
		}
	}
	if len(scoresJSON) > 0 {
		c.Scores = &model.ScoreCard{}
		if err := json.Unmarshal(scoresJSON, c.Scores); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal scores for company %d", id)
		}
	}
	return &c, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id int64, status model.Status) error {
	tag, err := s.pool.Exec(ctx, stmtUpdateStatus,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update status for company %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: update status for company %d", id)
	}
	return nil
}

func (s *PostgresStore) UpdateVettingResult(ctx context.Context, id int64, result VettingResult) error {
	dossierJSON, err := json.Marshal(result.Dossier)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal dossier")
	}
	scoresJSON, err := json.Marshal(result.Scores)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal scores")
	}

	tag, err := s.pool.Exec(ctx, stmtUpdateVetted,
		result.Name, string(model.StatusVetted), dossierJSON,
		nullable(result.WebsiteURL), nullable(result.LinkedInURL),
		scoresJSON, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update vetting result for company %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: update vetting result for company %d", id)
	}
	return nil
}

// ListByStatus returns companies in the given status ordered by id. A limit
// of zero or less means no limit (LIMIT NULL).
func (s *PostgresStore) ListByStatus(ctx context.Context, status model.Status, limit int) ([]model.Company, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}

	rows, err := s.pool.Query(ctx, stmtListByStatus, string(status), lim)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list by status")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		var c model.Company
		var name, groupName, websiteURL, linkedinURL *string
		var dossierJSON, scoresJSON []byte

		if err := rows.Scan(&c.ID, &c.Domain, &name, &groupName, &c.Status, &dossierJSON, &websiteURL, &linkedinURL, &scoresJSON, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		c.Name = deref(name)
		c.GroupName = deref(groupName)
		c.WebsiteURL = deref(websiteURL)
		c.LinkedInURL = deref(linkedinURL)
		if len(dossierJSON) > 0 {
			if err := json.Unmarshal(dossierJSON, &c.Dossier); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal dossier")
			}
		}
		if len(scoresJSON) > 0 {
			c.Scores = &model.ScoreCard{}
			if err := json.Unmarshal(scoresJSON, c.Scores); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal scores")
			}
		}
		companies = append(companies, c)
	}
	return companies, eris.Wrap(rows.Err(), "postgres: list by status iterate")
}

// AddCompanies bulk-inserts domains with status New, leaving existing rows
// untouched except for the group label.
func (s *PostgresStore) AddCompanies(ctx context.Context, domains []string, groupName string) (int64, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(domains))
	for _, d := range domains {
		rows = append(rows, []any{d, nullable(groupName), string(model.StatusNew), now, now})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "companies",
		Columns:      []string{"domain", "group_name", "status", "created_at", "updated_at"},
		ConflictKeys: []string{"domain"},
		UpdateCols:   []string{"group_name", "updated_at"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: add companies")
	}
	return n, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
