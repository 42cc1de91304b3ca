package backends

import (
	"annolist/internal/models"
	"annolist/internal/providers"
	"context"
	"strconv"

	json "github.com/goccy/go-json"
)

const searchKeyPrefix = "search:"

// CachedSearcher remembers dashboard search hits. Failed searches are not
// cached.
type CachedSearcher struct {
	inner  DashboardSearcherInterface
	cache  providers.CacheProviderInterface
	logger providers.Logger
}

func NewCachedSearcher(grafana *GrafanaClient, cache providers.CacheProviderInterface, logger providers.Logger) DashboardSearcherInterface {
	return &CachedSearcher{inner: grafana, cache: cache, logger: logger}
}

func (s *CachedSearcher) SearchDashboards(ctx context.Context, dashboardID int64) ([]models.DashboardSummary, error) {
	key := searchKeyPrefix + strconv.FormatInt(dashboardID, 10)

	if raw, ok := s.cache.Get(key); ok {
		var res []models.DashboardSummary
		if err := json.Unmarshal(raw, &res); err == nil {
			return res, nil
		}
		s.logger.Warnf(providers.TypeBackend, "Dropping unreadable cache entry %s", key)
	}

	res, err := s.inner.SearchDashboards(ctx, dashboardID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(res); err == nil {
		s.cache.Set(key, raw)
	}
	return res, nil
}
