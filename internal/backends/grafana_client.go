package backends

import (
	"annolist/internal/models"
	"annolist/internal/providers"
	"annolist/internal/structures"
	"context"
	"net/http"
	"net/url"
	"strconv"

	json "github.com/goccy/go-json"
)

const (
	annotationsPath = "/api/annotations"
	searchPath      = "/api/search"
	nativeBackend   = "native"
)

// GrafanaClient talks to the host platform API: the native annotation store
// and dashboard search.
type GrafanaClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  providers.Logger
}

func NewGrafanaClient(conf *structures.Config, client *http.Client, logger providers.Logger) *GrafanaClient {
	return &GrafanaClient{
		baseURL: conf.Grafana.URL,
		apiKey:  conf.Grafana.APIKey,
		client:  client,
		logger:  logger,
	}
}

func (g *GrafanaClient) GetAnnotations(ctx context.Context, params url.Values) ([]byte, error) {
	g.logger.Debugf(providers.TypeBackend, "GET %s?%s", annotationsPath, params.Encode())
	return get(ctx, g.client, nativeBackend, g.baseURL, annotationsPath, params, g.authorize)
}

func (g *GrafanaClient) SearchDashboards(ctx context.Context, dashboardID int64) ([]models.DashboardSummary, error) {
	params := url.Values{"dashboardIds": {strconv.FormatInt(dashboardID, 10)}}
	g.logger.Debugf(providers.TypeBackend, "GET %s?%s", searchPath, params.Encode())

	body, err := get(ctx, g.client, nativeBackend, g.baseURL, searchPath, params, g.authorize)
	if err != nil {
		return nil, err
	}

	var res []models.DashboardSummary
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, &models.TransportError{Backend: nativeBackend, StatusCode: http.StatusOK, Err: err}
	}
	return res, nil
}

func (g *GrafanaClient) authorize(req *http.Request) {
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}
}
