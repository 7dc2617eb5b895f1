package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/odysseus/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var companyColumns = []string{
	"id", "domain", "name", "group_name", "status", "apollo_data",
	"website_url", "company_linkedin_url", "scores", "created_at", "updated_at",
}

func TestPostgresStore_GetCompany(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	name := "Acme Energy"
	mock.ExpectQuery(`^get_company$`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(companyColumns).AddRow(
			int64(7), "acme.com", &name, (*string)(nil), model.StatusNew,
			[]byte(`{"organization":{"name":"Acme Energy"}}`),
			(*string)(nil), (*string)(nil), []byte(nil), now, now,
		))

	c, err := s.GetCompany(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.ID)
	assert.Equal(t, "acme.com", c.Domain)
	assert.Equal(t, "Acme Energy", c.Name)
	assert.Equal(t, model.StatusNew, c.Status)
	assert.Equal(t, "Acme Energy", c.Dossier.OrganizationName())
	assert.Nil(t, c.Scores)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCompany_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`^get_company$`).
		WithArgs(int64(404)).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetCompany(context.Background(), 404)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateStatus(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`^update_status$`).
		WithArgs("Vetting", pgxmock.AnyArg(), int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateStatus(context.Background(), 7, model.StatusVetting)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateStatus_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`^update_status$`).
		WithArgs("Failed", pgxmock.AnyArg(), int64(404)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateStatus(context.Background(), 404, model.StatusFailed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateVettingResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`^update_vetted$`).
		WithArgs("Acme Energy", "Vetted", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateVettingResult(context.Background(), 7, VettingResult{
		Name:    "Acme Energy",
		Dossier: model.Dossier{"organization": map[string]any{"name": "Acme Energy"}},
		Scores:  &model.ScoreCard{UnifiedScore: 6.10},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListByStatus(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`^list_by_status$`).
		WithArgs("New", 50).
		WillReturnRows(pgxmock.NewRows(companyColumns).
			AddRow(int64(1), "acme.com", (*string)(nil), (*string)(nil), model.StatusNew, []byte(nil), (*string)(nil), (*string)(nil), []byte(nil), now, now).
			AddRow(int64(2), "globex.example", (*string)(nil), (*string)(nil), model.StatusNew, []byte(nil), (*string)(nil), (*string)(nil), []byte(nil), now, now))

	companies, err := s.ListByStatus(context.Background(), model.StatusNew, 50)
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, int64(1), companies[0].ID)
	assert.Equal(t, "globex.example", companies[1].Domain)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListByStatus_NoLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	// limit <= 0 means no cap: the statement gets a NULL limit.
	mock.ExpectQuery(`^list_by_status$`).
		WithArgs("New", nil).
		WillReturnRows(pgxmock.NewRows(companyColumns))

	_, err := s.ListByStatus(context.Background(), model.StatusNew, 0)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddCompanies(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_companies"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_companies"},
		[]string{"domain", "group_name", "status", "created_at", "updated_at"}).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "companies" .+ ON CONFLICT \("domain"\) DO UPDATE SET`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()
	mock.ExpectRollback()

	n, err := s.AddCompanies(context.Background(), []string{"acme.com", "globex.example"}, "batch-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
