package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/odysseus/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs local runs
// and tests; production deployments use Postgres.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sqlDB}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	domain               TEXT NOT NULL UNIQUE,
	name                 TEXT,
	group_name           TEXT,
	status               TEXT NOT NULL DEFAULT 'New',
	apollo_data          TEXT,
	website_url          TEXT,
	company_linkedin_url TEXT,
	scores               TEXT,
	created_at           DATETIME NOT NULL,
	updated_at           DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_companies_status ON companies(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return eris.Wrap(s.db.Close(), "sqlite: close")
}

func (s *SQLiteStore) GetCompany(ctx context.Context, id int64) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, domain, name, group_name, status, apollo_data, website_url, company_linkedin_url, scores, created_at, updated_at FROM companies WHERE id = ?`,
		id,
	)
	c, err := scanCompany(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "sqlite: get company %d", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get company %d", id)
	}
	return c, nil
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id int64, status model.Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE companies SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update status for company %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: update status for company %d", id)
	}
	return nil
}

func (s *SQLiteStore) UpdateVettingResult(ctx context.Context, id int64, result VettingResult) error {
	dossierJSON, err := json.Marshal(result.Dossier)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal dossier")
	}
	scoresJSON, err := json.Marshal(result.Scores)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal scores")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE companies SET name = ?, status = ?, apollo_data = ?, website_url = ?, company_linkedin_url = ?, scores = ?, updated_at = ? WHERE id = ?`,
		result.Name, string(model.StatusVetted), string(dossierJSON),
		result.WebsiteURL, result.LinkedInURL, string(scoresJSON),
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update vetting result for company %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: update vetting result for company %d", id)
	}
	return nil
}

// ListByStatus returns companies in the given status ordered by id. A limit
// of zero or less means no limit (SQLite reads a negative LIMIT as unbounded).
func (s *SQLiteStore) ListByStatus(ctx context.Context, status model.Status, limit int) ([]model.Company, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, domain, name, group_name, status, apollo_data, website_url, company_linkedin_url, scores, created_at, updated_at FROM companies WHERE status = ? ORDER BY id LIMIT ?`,
		string(status), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list by status")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		c, err := scanCompany(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		companies = append(companies, *c)
	}
	return companies, eris.Wrap(rows.Err(), "sqlite: list by status iterate")
}

// AddCompanies inserts domains with status New. Existing rows keep their
// status; only the group label refreshes.
func (s *SQLiteStore) AddCompanies(ctx context.Context, domains []string, groupName string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	var total int64
	for _, d := range domains {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO companies (domain, group_name, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(domain) DO UPDATE SET group_name = excluded.group_name, updated_at = excluded.updated_at`,
			d, groupName, string(model.StatusNew), now, now,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: add company %s", d)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: rows affected")
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit tx")
	}
	return total, nil
}

// scanCompany reads one companies row through the given scan function.
func scanCompany(scan func(...any) error) (*model.Company, error) {
	var c model.Company
	var name, groupName, websiteURL, linkedinURL, dossierJSON, scoresJSON sql.NullString

	if err := scan(&c.ID, &c.Domain, &name, &groupName, &c.Status, &dossierJSON, &websiteURL, &linkedinURL, &scoresJSON, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}

	c.Name = name.String
	c.GroupName = groupName.String
	c.WebsiteURL = websiteURL.String
	c.LinkedInURL = linkedinURL.String

	if dossierJSON.Valid && dossierJSON.String != "" {
		if err := json.Unmarshal([]byte(dossierJSON.String), &c.Dossier); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal dossier")
		}
	}
	if scoresJSON.Valid && scoresJSON.String != "" {
		c.Scores = &model.ScoreCard{}
		if err := json.Unmarshal([]byte(scoresJSON.String), c.Scores); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal scores")
		}
	}
	return &c, nil
}
