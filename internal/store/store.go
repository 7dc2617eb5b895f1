// Package store persists companies and their vetting outcomes.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/odysseus/internal/model"
)

// ErrNotFound is returned when an operation targets a company id that does
// not exist.
var ErrNotFound = eris.New("store: company not found")

// VettingResult is everything written alongside the Vetted status. The whole
// payload lands in a single row update so readers never observe a company
// that is Vetted but missing scores.
type VettingResult struct {
	Name        string
	Dossier     model.Dossier
	WebsiteURL  string
	LinkedInURL string
	Scores      *model.ScoreCard
}

// Store defines the persistence interface for the vetting pipeline. The
// pipeline only touches rows it was handed by id, plus ListByStatus for the
// --all-new dispatch path.
type Store interface {
	GetCompany(ctx context.Context, id int64) (*model.Company, error)
	UpdateStatus(ctx context.Context, id int64, status model.Status) error
	UpdateVettingResult(ctx context.Context, id int64, result VettingResult) error
	ListByStatus(ctx context.Context, status model.Status, limit int) ([]model.Company, error)
	AddCompanies(ctx context.Context, domains []string, groupName string) (int64, error)

	Migrate(ctx context.Context) error
	Close() error
}
