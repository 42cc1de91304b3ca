package backends

import (
	"annolist/internal/builder"
	"annolist/internal/models"
	"context"
	"errors"
)

var ErrUnknownDatasource = errors.New("unknown datasource")

// SourceInterface runs a built query against whichever backend it targets
// and returns the undecoded body.
type SourceInterface interface {
	Fetch(ctx context.Context, q builder.BackendQuery) ([]byte, error)
	Datasources() []string
}

type DashboardSearcherInterface interface {
	SearchDashboards(ctx context.Context, dashboardID int64) ([]models.DashboardSummary, error)
}
