package services

import (
	"annolist/internal/backends"
	"annolist/internal/builder"
	"annolist/internal/models"
	"annolist/internal/navigation"
	"annolist/internal/structures"
	"annolist/internal/testutil"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nativeBody = `[
	{"id":1,"time":1500000000000,"dashboardId":5,"panelId":2,"userId":3,"login":"admin","tags":["deploy"],"text":"v1.2"},
	{"id":2,"time":1500000060000,"dashboardId":9,"tags":[],"text":"restart"}
]`

const columnarBody = `{"results":[{"statement_id":0,"series":[{"name":"events",
	"columns":["time","tags","text","dashboardId"],
	"values":[[1500000000000,"deploy,prod","v1.2",7],[1500000060000,"","restart",null]]}]}]}`

var host = HostContext{
	DashboardID: 5,
	OrgID:       "1",
	TimeRange:   models.TimeRange{From: 1000, To: 2000},
}

type fixture struct {
	svc      *AnnotationService
	source   *testutil.MockSource
	searcher *testutil.MockSearcher
	metrics  *testutil.MockMetrics
	logger   *testutil.MockLogger
}

func newFixture() *fixture {
	conf := &structures.Config{Panel: structures.PanelDefaults{
		Limit:               10,
		ShowTags:            true,
		NavigateBefore:      "10m",
		NavigateAfter:       "10m",
		NavigateToPanel:     true,
		NavigateToDashboard: true,
	}}
	f := &fixture{
		source:   &testutil.MockSource{Body: []byte(nativeBody), Names: []string{"metrics", models.NativeDatasource}},
		searcher: &testutil.MockSearcher{Results: map[int64][]models.DashboardSummary{}},
		metrics:  testutil.NewMockMetrics(),
		logger:   &testutil.MockLogger{},
	}
	f.svc = NewAnnotationService(conf, f.source, f.searcher, f.metrics, f.logger).(*AnnotationService)
	f.svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	return f
}

func TestRefresh_NativeDefaults(t *testing.T) {
	f := newFixture()

	view, err := f.svc.Refresh(context.Background(), "p1", host)
	require.NoError(t, err)

	require.Len(t, view.Found, 2)
	assert.Equal(t, int64(1500000000000), view.Found[0].Time)
	assert.Equal(t, "admin", view.Found[0].Login)
	assert.False(t, view.Stale)
	assert.Equal(t, "All Time", view.TimeInfo)
	assert.Equal(t, time.Unix(1700000000, 0), view.UpdatedAt)

	q := f.source.LastQuery()
	assert.Equal(t, builder.KindNative, q.Kind)
	assert.Equal(t, 10, q.Native.Limit)
	assert.Nil(t, q.Native.DashboardID)
	assert.Equal(t, 1, f.metrics.PanelsTotal)
}

func TestRefresh_TimeSeriesDatasource(t *testing.T) {
	f := newFixture()
	f.source.Body = []byte(columnarBody)

	opts := models.DefaultPanelOptions()
	opts.Filter.SelectedDatasource = "metrics"
	view, err := f.svc.Configure(context.Background(), "p1", opts, host)
	require.NoError(t, err)

	require.Len(t, view.Found, 2)
	assert.Equal(t, []string{"deploy", "prod"}, view.Found[0].Tags)
	assert.Equal(t, int64(7), view.Found[0].DashboardID)
	assert.Equal(t, []string{}, view.Found[1].Tags)
	assert.Equal(t, host.DashboardID, view.Found[1].DashboardID)

	q := f.source.LastQuery()
	assert.Equal(t, builder.KindInflux, q.Kind)
	assert.Equal(t, "metrics", q.Datasource)
}

func TestRefresh_TransportErrorKeepsPreviousList(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Refresh(context.Background(), "p1", host)
	require.NoError(t, err)

	f.source.Body = nil
	f.source.Err = &models.TransportError{Backend: "native", StatusCode: 502, Err: errors.New("bad gateway")}

	view, err := f.svc.Refresh(context.Background(), "p1", host)
	require.NoError(t, err)
	assert.True(t, view.Stale)
	assert.Contains(t, view.Error, "502")
	assert.Len(t, view.Found, 2)
	assert.Equal(t, 1, f.metrics.BackendErrors["native:transport"])
	assert.Equal(t, []string{"p1"}, f.svc.StalePanels())

	f.source.Err = nil
	f.source.Body = []byte(`[]`)
	view, err = f.svc.Refresh(context.Background(), "p1", host)
	require.NoError(t, err)
	assert.False(t, view.Stale)
	assert.Empty(t, f.svc.StalePanels())
	assert.Empty(t, view.Error)
	assert.Empty(t, view.Found)
}

func TestRefresh_StatementErrorIsTransport(t *testing.T) {
	f := newFixture()
	f.source.Body = []byte(`{"results":[{"statement_id":0,"error":"database not found: x"}]}`)

	opts := models.DefaultPanelOptions()
	opts.Filter.SelectedDatasource = "metrics"
	view, err := f.svc.Configure(context.Background(), "p1", opts, host)
	require.NoError(t, err)

	assert.True(t, view.Stale)
	assert.Contains(t, view.Error, "database not found")
	assert.Equal(t, 1, f.metrics.BackendErrors["influxdb:transport"])
}

func TestRefresh_MalformedRowsSkipped(t *testing.T) {
	f := newFixture()
	f.source.Body = []byte(`[{"time":1},{"text":"no time"},{"time":3}]`)

	view, err := f.svc.Refresh(context.Background(), "p1", host)
	require.NoError(t, err)

	assert.Len(t, view.Found, 2)
	assert.False(t, view.Stale)
	assert.Equal(t, 1, f.metrics.MalformedRows)
	assert.Equal(t, 1, f.metrics.BackendErrors["native:shape"])
	assert.NotEmpty(t, f.logger.Entries("warn"))
}

func TestRefresh_UnreadableBodyKeepsPreviousList(t *testing.T) {
	for _, body := range []string{
		`<html>502 proxy error</html>`,
		`{"message":"session expired"}`,
	} {
		t.Run(body, func(t *testing.T) {
			f := newFixture()
			view, err := f.svc.Refresh(context.Background(), "p1", host)
			require.NoError(t, err)
			require.Len(t, view.Found, 2)

			f.source.Body = []byte(body)
			view, err = f.svc.Refresh(context.Background(), "p1", host)
			require.NoError(t, err)
			assert.True(t, view.Stale)
			assert.NotEmpty(t, view.Error)
			assert.Len(t, view.Found, 2)
			assert.Equal(t, 1, f.metrics.MalformedRows)
			assert.Equal(t, 1, f.metrics.BackendErrors["native:shape"])
			assert.Equal(t, []string{"p1"}, f.svc.StalePanels())
		})
	}
}

func TestRefresh_UnreadableFirstBodyIsEmptyAndStale(t *testing.T) {
	f := newFixture()
	f.source.Body = []byte(`not json`)

	view, err := f.svc.Refresh(context.Background(), "p1", host)
	require.NoError(t, err)
	assert.True(t, view.Stale)
	assert.NotNil(t, view.Found)
	assert.Empty(t, view.Found)
}

func TestRefresh_OlderResponseDiscarded(t *testing.T) {
	f := newFixture()

	release := make(chan struct{})
	first := make(chan struct{})
	var calls int
	var mu sync.Mutex
	f.source.FetchFn = func(ctx context.Context, q builder.BackendQuery) ([]byte, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(first)
			<-release
			return []byte(`[{"time":1,"text":"old"}]`), nil
		}
		return []byte(`[{"time":2,"text":"new"}]`), nil
	}

	done := make(chan *models.PanelView)
	go func() {
		v, _ := f.svc.Refresh(context.Background(), "p1", host)
		done <- v
	}()
	<-first

	newer, err := f.svc.Refresh(context.Background(), "p1", host)
	require.NoError(t, err)
	require.Len(t, newer.Found, 1)
	assert.Equal(t, int64(2), newer.Found[0].Time)

	close(release)
	older := <-done
	require.Len(t, older.Found, 1)
	assert.Equal(t, int64(2), older.Found[0].Time, "the late response must not overwrite the newer list")
	assert.Equal(t, 1, f.metrics.StaleResponses)

	view, ok := f.svc.View("p1")
	require.True(t, ok)
	assert.Equal(t, int64(2), view.Found[0].Time)
}

func TestRefresh_EmptyPanelID(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Refresh(context.Background(), "", host)
	assert.ErrorIs(t, err, ErrPanelRequired)
}

func TestToggleTag_AddsAndRemoves(t *testing.T) {
	f := newFixture()

	view, err := f.svc.ToggleTag(context.Background(), "p1", "deploy", host)
	require.NoError(t, err)
	assert.Equal(t, []string{"deploy"}, view.Options.Filter.Tags)
	assert.Equal(t, []string{"deploy"}, f.source.LastQuery().Native.Tags)

	view, err = f.svc.ToggleTag(context.Background(), "p1", "deploy", host)
	require.NoError(t, err)
	assert.Empty(t, view.Options.Filter.Tags)
	assert.Empty(t, f.source.LastQuery().Native.Tags)
}

func TestToggleTag_EmptyClears(t *testing.T) {
	f := newFixture()
	_, _ = f.svc.ToggleTag(context.Background(), "p1", "a", host)
	_, _ = f.svc.ToggleTag(context.Background(), "p1", "b", host)

	view, err := f.svc.ToggleTag(context.Background(), "p1", "", host)
	require.NoError(t, err)
	assert.Empty(t, view.Options.Filter.Tags)
}

func TestPinTag_JoinsQueryTags(t *testing.T) {
	f := newFixture()
	_, _ = f.svc.ToggleTag(context.Background(), "p1", "a", host)

	view, err := f.svc.PinTag(context.Background(), "p1", "b", host)
	require.NoError(t, err)
	assert.Equal(t, "b", view.Options.Filter.QueryTagValue)
	assert.Equal(t, []string{"a"}, view.Options.Filter.Tags)
	assert.Equal(t, []string{"a", "b"}, f.source.LastQuery().Native.Tags)

	view, err = f.svc.PinTag(context.Background(), "p1", "b", host)
	require.NoError(t, err)
	assert.Empty(t, view.Options.Filter.QueryTagValue)
}

func TestToggleUser(t *testing.T) {
	f := newFixture()
	uid := int64(3)
	anno := &models.Annotation{Time: 1, UserID: &uid, Login: "admin"}

	view, err := f.svc.ToggleUser(context.Background(), "p1", anno, host)
	require.NoError(t, err)
	require.NotNil(t, view.Options.Filter.QueryUser)
	assert.Equal(t, int64(3), view.Options.Filter.QueryUser.ID)
	assert.Equal(t, "All Time admin", view.TimeInfo)
	require.NotNil(t, f.source.LastQuery().Native.UserID)
	assert.Equal(t, int64(3), *f.source.LastQuery().Native.UserID)

	view, err = f.svc.ToggleUser(context.Background(), "p1", anno, host)
	require.NoError(t, err)
	assert.Nil(t, view.Options.Filter.QueryUser)
	assert.Nil(t, f.source.LastQuery().Native.UserID)
}

func TestToggleUser_NoUserClears(t *testing.T) {
	f := newFixture()
	uid := int64(3)
	_, _ = f.svc.ToggleUser(context.Background(), "p1", &models.Annotation{UserID: &uid, Login: "admin"}, host)

	view, err := f.svc.ToggleUser(context.Background(), "p1", &models.Annotation{Time: 1}, host)
	require.NoError(t, err)
	assert.Nil(t, view.Options.Filter.QueryUser)
}

func TestConfigure_UnknownDatasource(t *testing.T) {
	f := newFixture()
	opts := models.DefaultPanelOptions()
	opts.Filter.SelectedDatasource = "graphite"

	_, err := f.svc.Configure(context.Background(), "p1", opts, host)
	assert.ErrorIs(t, err, backends.ErrUnknownDatasource)
	assert.Empty(t, f.source.Queries)
}

func TestConfigure_KeepsUserFilterAndNormalizes(t *testing.T) {
	f := newFixture()
	uid := int64(8)
	_, _ = f.svc.ToggleUser(context.Background(), "p1", &models.Annotation{UserID: &uid, Login: "ops"}, host)

	view, err := f.svc.Configure(context.Background(), "p1", models.PanelOptions{
		Filter: models.FilterState{OnlyInTimeRange: true, OnlyFromThisDashboard: true},
	}, host)
	require.NoError(t, err)

	assert.Equal(t, models.DefaultLimit, view.Options.Filter.Limit)
	assert.Equal(t, models.NativeDatasource, view.Options.Filter.SelectedDatasource)
	require.NotNil(t, view.Options.Filter.QueryUser)
	assert.Equal(t, "ops", view.Options.Filter.QueryUser.Login)
	assert.Equal(t, "ops", view.TimeInfo)

	q := f.source.LastQuery().Native
	require.NotNil(t, q.DashboardID)
	assert.Equal(t, int64(5), *q.DashboardID)
	assert.Equal(t, int64(1000), *q.From)
	assert.Equal(t, int64(2000), *q.To)
}

func TestNavigate_SameDashboardStays(t *testing.T) {
	f := newFixture()
	panelID := int64(2)

	target, err := f.svc.Navigate(context.Background(), "p1", &models.Annotation{Time: 1500000000000, DashboardID: 5, PanelID: &panelID}, host)
	require.NoError(t, err)

	assert.Equal(t, navigation.KindStay, target.Kind)
	assert.Equal(t, "2", target.Params["panelId"])
	assert.Equal(t, int64(1500000000000-600000), target.Window.FromMillis())
	assert.Empty(t, f.searcher.Calls)
}

func TestNavigate_OtherDashboardRoutes(t *testing.T) {
	f := newFixture()
	f.searcher.Results[9] = []models.DashboardSummary{{ID: 9, URL: "/d/nine/ops"}}

	target, err := f.svc.Navigate(context.Background(), "p1", &models.Annotation{Time: 1500000000000, DashboardID: 9}, host)
	require.NoError(t, err)

	assert.Equal(t, navigation.KindRoute, target.Kind)
	assert.Equal(t, "/d/nine/ops", target.Path)
	assert.Equal(t, "1", target.Params["orgId"])
}

func TestNavigate_SearchFailure(t *testing.T) {
	f := newFixture()
	f.searcher.Err = errors.New("connection refused")

	target, err := f.svc.Navigate(context.Background(), "p1", &models.Annotation{Time: 1, DashboardID: 9}, host)
	assert.Error(t, err)
	assert.Nil(t, target)
	assert.Equal(t, 1, f.metrics.BackendErrors["native:transport"])
}

func TestView_UnknownPanel(t *testing.T) {
	f := newFixture()
	_, ok := f.svc.View("nope")
	assert.False(t, ok)
}

func TestView_ReturnsCopy(t *testing.T) {
	f := newFixture()
	_, _ = f.svc.ToggleTag(context.Background(), "p1", "a", host)

	view, _ := f.svc.View("p1")
	view.Options.Filter.Tags[0] = "mutated"
	view.Found[0] = nil

	again, _ := f.svc.View("p1")
	assert.Equal(t, []string{"a"}, again.Options.Filter.Tags)
	assert.NotNil(t, again.Found[0])
}

func TestSnapshotRestore(t *testing.T) {
	f := newFixture()
	uid := int64(3)
	_, _ = f.svc.ToggleTag(context.Background(), "p1", "deploy", host)
	_, _ = f.svc.ToggleUser(context.Background(), "p1", &models.Annotation{UserID: &uid, Login: "admin"}, host)
	_, _ = f.svc.Refresh(context.Background(), "p2", host)

	snap := f.svc.Snapshot()
	assert.Equal(t, models.SnapshotVersion, snap.Version)
	require.Len(t, snap.Panels, 2)
	assert.Equal(t, []string{"deploy"}, snap.Panels["p1"].Filter.Tags)
	assert.Nil(t, snap.Panels["p1"].Filter.QueryUser)

	view, _ := f.svc.View("p1")
	assert.NotNil(t, view.Options.Filter.QueryUser, "snapshot must not touch live state")

	g := newFixture()
	g.svc.Restore(snap)
	assert.Equal(t, 2, g.svc.PanelCount())
	assert.Equal(t, 2, g.metrics.PanelsTotal)

	restored, ok := g.svc.View("p1")
	require.True(t, ok)
	assert.Equal(t, []string{"deploy"}, restored.Options.Filter.Tags)
	assert.Empty(t, restored.Found)
}

func TestRestore_SkipsInvalidEntries(t *testing.T) {
	f := newFixture()
	f.svc.Restore(&models.PanelSnapshot{Panels: map[string]*models.PanelOptions{
		"":   {},
		"p1": nil,
		"p2": {Filter: models.FilterState{Limit: -1}},
	}})
	f.svc.Restore(nil)

	assert.Equal(t, 1, f.svc.PanelCount())
	view, _ := f.svc.View("p2")
	assert.Equal(t, models.DefaultLimit, view.Options.Filter.Limit)
}

func TestDatasources(t *testing.T) {
	f := newFixture()
	assert.Equal(t, []string{"metrics", models.NativeDatasource}, f.svc.Datasources())
}

func TestConcurrentRefreshes(t *testing.T) {
	f := newFixture()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			panel := "p" + string(rune('a'+i%4))
			_, _ = f.svc.ToggleTag(context.Background(), panel, "x", host)
			_, _ = f.svc.Refresh(context.Background(), panel, host)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 4, f.svc.PanelCount())
}
