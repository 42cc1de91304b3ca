package backends

import (
	"annolist/internal/models"
	"annolist/internal/testutil"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedSearcher_CachesHits(t *testing.T) {
	inner := &testutil.MockSearcher{Results: map[int64][]models.DashboardSummary{
		7: {{ID: 7, URL: "/d/x/seven"}},
	}}
	cache := testutil.NewMockCache()
	s := &CachedSearcher{inner: inner, cache: cache, logger: &testutil.MockLogger{}}

	for i := 0; i < 3; i++ {
		res, err := s.SearchDashboards(context.Background(), 7)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "/d/x/seven", res[0].URL)
	}

	assert.Equal(t, []int64{7}, inner.Calls)
	_, ok := cache.Get("search:7")
	assert.True(t, ok)
}

func TestCachedSearcher_ErrorsNotCached(t *testing.T) {
	inner := &testutil.MockSearcher{Err: errors.New("connection refused")}
	cache := testutil.NewMockCache()
	s := &CachedSearcher{inner: inner, cache: cache, logger: &testutil.MockLogger{}}

	_, err := s.SearchDashboards(context.Background(), 3)
	assert.Error(t, err)
	_, err = s.SearchDashboards(context.Background(), 3)
	assert.Error(t, err)

	assert.Len(t, inner.Calls, 2)
	assert.Empty(t, cache.Data)
}

func TestCachedSearcher_UnreadableEntryRefetched(t *testing.T) {
	inner := &testutil.MockSearcher{Results: map[int64][]models.DashboardSummary{1: {{ID: 1}}}}
	cache := testutil.NewMockCache()
	cache.Set("search:1", []byte("{not json"))
	logger := &testutil.MockLogger{}
	s := &CachedSearcher{inner: inner, cache: cache, logger: logger}

	res, err := s.SearchDashboards(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res[0].ID)
	assert.Len(t, logger.Entries("warn"), 1)
}
