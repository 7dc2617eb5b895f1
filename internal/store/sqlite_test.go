package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/odysseus/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLiteAddAndGet(t *testing.T) {
	t.Parallel()
	st := newTestSQLite(t)
	ctx := context.Background()

	n, err := st.AddCompanies(ctx, []string{"acme.com", "globex.example"}, "batch-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	companies, err := st.ListByStatus(ctx, model.StatusNew, 10)
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, "acme.com", companies[0].Domain)
	assert.Equal(t, "batch-1", companies[0].GroupName)
	assert.Equal(t, model.StatusNew, companies[0].Status)

	got, err := st.GetCompany(ctx, companies[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "acme.com", got.Domain)
	assert.Nil(t, got.Scores)
}

func TestSQLiteAddCompaniesIdempotentOnDomain(t *testing.T) {
	t.Parallel()
	st := newTestSQLite(t)
	ctx := context.Background()

	_, err := st.AddCompanies(ctx, []string{"acme.com"}, "g1")
	require.NoError(t, err)
	require.NoError(t, err)

	ids, err := st.ListByStatus(ctx, model.StatusNew, 10)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	require.NoError(t, st.UpdateStatus(ctx, ids[0].ID, model.StatusVetting))

	// Re-adding the same domain must not reset its status.
	_, err = st.AddCompanies(ctx, []string{"acme.com"}, "g2")
	require.NoError(t, err)

	got, err := st.GetCompany(ctx, ids[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVetting, got.Status)
	assert.Equal(t, "g2", got.GroupName)

	all, err := st.ListByStatus(ctx, model.StatusVetting, 10)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteListByStatusNoLimit(t *testing.T) {
	t.Parallel()
	st := newTestSQLite(t)
	ctx := context.Background()

	domains := make([]string, 120)
	for i := range domains {
		domains[i] = fmt.Sprintf("company-%03d.example", i)
	}
	n, err := st.AddCompanies(ctx, domains, "bulk")
	require.NoError(t, err)
	require.Equal(t, int64(120), n)

	all, err := st.ListByStatus(ctx, model.StatusNew, 0)
	require.NoError(t, err)
	assert.Len(t, all, 120)

	capped, err := st.ListByStatus(ctx, model.StatusNew, 10)
	require.NoError(t, err)
	assert.Len(t, capped, 10)
}

func TestSQLiteUpdateStatus(t *testing.T) {
	t.Parallel()
	st := newTestSQLite(t)
	ctx := context.Background()

	_, err := st.AddCompanies(ctx, []string{"acme.com"}, "")
	require.NoError(t, err)
	companies, err := st.ListByStatus(ctx, model.StatusNew, 1)
	require.NoError(t, err)
	id := companies[0].ID

	require.NoError(t, st.UpdateStatus(ctx, id, model.StatusVetting))

	got, err := st.GetCompany(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVetting, got.Status)
}

func TestSQLiteUpdateStatusNotFound(t *testing.T) {
	t.Parallel()
	st := newTestSQLite(t)

	err := st.UpdateStatus(context.Background(), 9999, model.StatusFailed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteGetCompanyNotFound(t *testing.T) {
	t.Parallel()
	st := newTestSQLite(t)

	_, err := st.GetCompany(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteUpdateVettingResult(t *testing.T) {
	t.Parallel()
	st := newTestSQLite(t)
	ctx := context.Background()

	_, err := st.AddCompanies(ctx, []string{"acme.com"}, "")
	require.NoError(t, err)
	companies, err := st.ListByStatus(ctx, model.StatusNew, 1)
	require.NoError(t, err)
	id := companies[0].ID
	require.NoError(t, st.UpdateStatus(ctx, id, model.StatusVetting))

	card := &model.ScoreCard{
		UnifiedScore: 6.10,
		Geography:    model.TopicAnalysis{Score: 8, Reasoning: "geo"},
		Industry:     model.TopicAnalysis{Score: 6, Reasoning: "ind"},
		Russia:       model.TopicAnalysis{Score: 10, Reasoning: "rus"},
		Size:         model.TopicAnalysis{Score: 4, Reasoning: "siz"},
		Final:        model.FinalAnalysis{InvestmentReasoning: "Depends. Size."},
	}
	err = st.UpdateVettingResult(ctx, id, VettingResult{
		Name:        "Acme Energy",
		Dossier:     model.Dossier{"organization": map[string]any{"name": "Acme Energy"}},
		WebsiteURL:  "https://acme.com",
		LinkedInURL: "https://linkedin.com/company/acme",
		Scores:      card,
	})
	require.NoError(t, err)

	got, err := st.GetCompany(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVetted, got.Status)
	assert.Equal(t, "Acme Energy", got.Name)
	assert.Equal(t, "Acme Energy", got.Dossier.OrganizationName())
	require.NotNil(t, got.Scores)
	assert.InDelta(t, 6.10, got.Scores.UnifiedScore, 1e-9)
	assert.Equal(t, 8, got.Scores.Geography.Score)
	assert.Equal(t, "Depends. Size.", got.Scores.Final.InvestmentReasoning)
}

func TestSQLiteUpdateVettingResultNotFound(t *testing.T) {
	t.Parallel()
	st := newTestSQLite(t)

	err := st.UpdateVettingResult(context.Background(), 123, VettingResult{Name: "X"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}
