package services

import (
	"annolist/internal/backends"
	"annolist/internal/builder"
	"annolist/internal/models"
	"annolist/internal/navigation"
	"annolist/internal/normalizer"
	"annolist/internal/providers"
	"annolist/internal/structures"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/atomic"
)

var ErrPanelRequired = errors.New("panel id is required")

// HostContext is the dashboard state the host passes with every call.
type HostContext struct {
	DashboardID int64            `json:"dashboardId"`
	OrgID       string           `json:"orgId,omitempty"`
	TimeRange   models.TimeRange `json:"timeRange"`
}

type AnnotationServiceInterface interface {
	Refresh(ctx context.Context, panel string, host HostContext) (*models.PanelView, error)
	ToggleTag(ctx context.Context, panel, tag string, host HostContext) (*models.PanelView, error)
	PinTag(ctx context.Context, panel, tag string, host HostContext) (*models.PanelView, error)
	ToggleUser(ctx context.Context, panel string, anno *models.Annotation, host HostContext) (*models.PanelView, error)
	Navigate(ctx context.Context, panel string, anno *models.Annotation, host HostContext) (*navigation.Target, error)
	Configure(ctx context.Context, panel string, opts models.PanelOptions, host HostContext) (*models.PanelView, error)
	View(panel string) (*models.PanelView, bool)
	Datasources() []string
	Snapshot() *models.PanelSnapshot
	Restore(snap *models.PanelSnapshot)
	PanelCount() int
	StalePanels() []string
}

type panelState struct {
	mu        sync.Mutex
	options   models.PanelOptions
	found     []*models.Annotation
	stale     bool
	lastErr   string
	updatedAt time.Time

	generation atomic.Uint64
	applied    uint64
}

type AnnotationService struct {
	mu     sync.RWMutex
	panels map[string]*panelState

	defaults structures.PanelDefaults
	source   backends.SourceInterface
	searcher backends.DashboardSearcherInterface
	metrics  providers.MetricsProviderInterface
	logger   providers.Logger
	now      func() time.Time
}

func NewAnnotationService(conf *structures.Config, source backends.SourceInterface, searcher backends.DashboardSearcherInterface, metrics providers.MetricsProviderInterface, logger providers.Logger) AnnotationServiceInterface {
	return &AnnotationService{
		panels:   make(map[string]*panelState),
		defaults: conf.Panel,
		source:   source,
		searcher: searcher,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *AnnotationService) state(panel string) (*panelState, error) {
	if panel == "" {
		return nil, ErrPanelRequired
	}

	s.mu.RLock()
	st, ok := s.panels[panel]
	s.mu.RUnlock()
	if ok {
		return st, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok = s.panels[panel]; ok {
		return st, nil
	}
	st = &panelState{options: providers.PanelDefaultsToOptions(s.defaults)}
	s.panels[panel] = st
	s.metrics.SetPanelsTotal(len(s.panels))
	return st, nil
}

// Refresh queries the panel's backend and applies the result unless a later
// refresh of the same panel has already been applied.
func (s *AnnotationService) Refresh(ctx context.Context, panel string, host HostContext) (*models.PanelView, error) {
	st, err := s.state(panel)
	if err != nil {
		return nil, err
	}

	// the generation is taken together with the filter it was built from
	st.mu.Lock()
	filter := st.options.Filter.Clone()
	gen := st.generation.Inc()
	st.mu.Unlock()

	q := builder.BuildQuery(&filter, host.DashboardID, host.TimeRange)
	found, fetchErr := s.run(ctx, q, host.DashboardID)

	st.mu.Lock()
	defer st.mu.Unlock()

	if gen <= st.applied {
		s.metrics.IncStaleResponses()
		s.logger.Debugf(providers.TypeApp, "Panel %s: discarding refresh %d, %d already applied", panel, gen, st.applied)
		return s.view(panel, st), nil
	}
	st.applied = gen
	st.updatedAt = s.now()

	if fetchErr != nil {
		st.stale = true
		st.lastErr = fetchErr.Error()
		return s.view(panel, st), nil
	}
	st.found = found
	st.stale = false
	st.lastErr = ""
	return s.view(panel, st), nil
}

// run fetches and normalizes one query. A non-nil error means nothing usable
// came back; per-row anomalies are logged here and never returned.
func (s *AnnotationService) run(ctx context.Context, q builder.BackendQuery, dashboardID int64) ([]*models.Annotation, error) {
	kind := q.Kind.String()

	start := time.Now()
	raw, err := s.source.Fetch(ctx, q)
	s.metrics.ObserveBackendDuration(kind, time.Since(start))
	if err != nil {
		s.metrics.IncBackendErrors(kind, providers.ErrorClassTransport)
		s.logger.Warnf(providers.TypeBackend, "%s query on %q failed: %v", kind, q.Datasource, err)
		return nil, err
	}

	found, err := normalizer.Normalize(raw, q.Kind, dashboardID)
	if err == nil {
		return found, nil
	}

	var te *models.TransportError
	if errors.As(err, &te) {
		s.metrics.IncBackendErrors(kind, providers.ErrorClassTransport)
		s.logger.Warnf(providers.TypeBackend, "%s rejected query on %q: %v", kind, q.Datasource, err)
		return nil, err
	}

	s.metrics.IncBackendErrors(kind, providers.ErrorClassShape)

	// nothing in the body decoded, so the last good list stays on screen
	var shape *models.DataShapeError
	if errors.As(err, &shape) && shape.Row < 0 && len(found) == 0 {
		s.metrics.AddMalformedRows(kind, 1)
		s.logger.Warnf(providers.TypeBackend, "%s response from %q unreadable: %v", kind, q.Datasource, err)
		return nil, err
	}

	skipped := 1
	var merr *multierror.Error
	if errors.As(err, &merr) {
		skipped = merr.Len()
	}
	s.metrics.AddMalformedRows(kind, skipped)
	s.logger.Warnf(providers.TypeBackend, "%s response from %q: %d entries skipped: %v", kind, q.Datasource, skipped, err)

	if found == nil {
		found = []*models.Annotation{}
	}
	return found, nil
}

func (s *AnnotationService) mutate(ctx context.Context, panel string, host HostContext, fn func(o *models.PanelOptions) error) (*models.PanelView, error) {
	st, err := s.state(panel)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	err = fn(&st.options)
	st.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.Refresh(ctx, panel, host)
}

func (s *AnnotationService) ToggleTag(ctx context.Context, panel, tag string, host HostContext) (*models.PanelView, error) {
	return s.mutate(ctx, panel, host, func(o *models.PanelOptions) error {
		o.Filter.ToggleTag(tag)
		return nil
	})
}

func (s *AnnotationService) PinTag(ctx context.Context, panel, tag string, host HostContext) (*models.PanelView, error) {
	return s.mutate(ctx, panel, host, func(o *models.PanelOptions) error {
		o.Filter.PinTag(tag)
		return nil
	})
}

func (s *AnnotationService) ToggleUser(ctx context.Context, panel string, anno *models.Annotation, host HostContext) (*models.PanelView, error) {
	return s.mutate(ctx, panel, host, func(o *models.PanelOptions) error {
		o.Filter.ToggleUser(anno)
		return nil
	})
}

// Configure replaces the panel options. The live user filter survives a
// reconfiguration unless the new options carry their own.
func (s *AnnotationService) Configure(ctx context.Context, panel string, opts models.PanelOptions, host HostContext) (*models.PanelView, error) {
	opts.Normalize()
	if !opts.Filter.IsNative() && !slices.Contains(s.source.Datasources(), opts.Filter.SelectedDatasource) {
		return nil, fmt.Errorf("%w: %q", backends.ErrUnknownDatasource, opts.Filter.SelectedDatasource)
	}
	return s.mutate(ctx, panel, host, func(o *models.PanelOptions) error {
		if opts.Filter.QueryUser == nil {
			opts.Filter.QueryUser = o.Filter.QueryUser
		}
		*o = opts
		return nil
	})
}

func (s *AnnotationService) Navigate(ctx context.Context, panel string, anno *models.Annotation, host HostContext) (*navigation.Target, error) {
	st, err := s.state(panel)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	opts := navigation.OptionsFrom(&st.options)
	st.mu.Unlock()

	target, err := navigation.ResolveNavigationTarget(ctx, s.searcher, anno, navigation.Context{
		DashboardID: host.DashboardID,
		OrgID:       host.OrgID,
	}, opts)
	if err != nil {
		s.metrics.IncBackendErrors(builder.KindNative.String(), providers.ErrorClassTransport)
		s.logger.Errorf(providers.TypeBackend, "Panel %s: %v", panel, err)
		return nil, err
	}
	if target.Warning != nil {
		s.logger.Infof(providers.TypeApp, "Panel %s: navigation aborted: %s", panel, target.Warning.Error())
	}
	return target, nil
}

func (s *AnnotationService) View(panel string) (*models.PanelView, bool) {
	s.mu.RLock()
	st, ok := s.panels[panel]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return s.view(panel, st), true
}

// view must be called with st.mu held.
func (s *AnnotationService) view(panel string, st *panelState) *models.PanelView {
	found := make([]*models.Annotation, len(st.found))
	copy(found, st.found)

	opts := st.options
	opts.Filter = st.options.Filter.Clone()

	return &models.PanelView{
		Panel:     panel,
		Found:     found,
		TimeInfo:  opts.Filter.TimeInfo(),
		Options:   opts,
		Stale:     st.stale,
		Error:     st.lastErr,
		UpdatedAt: st.updatedAt,
	}
}

func (s *AnnotationService) Datasources() []string {
	return s.source.Datasources()
}

// Snapshot copies every panel's options. The user filter is a browsing
// choice and is left out.
func (s *AnnotationService) Snapshot() *models.PanelSnapshot {
	s.mu.RLock()
	states := make(map[string]*panelState, len(s.panels))
	for id, st := range s.panels {
		states[id] = st
	}
	s.mu.RUnlock()

	snap := &models.PanelSnapshot{
		Version: models.SnapshotVersion,
		Panels:  make(map[string]*models.PanelOptions, len(states)),
	}
	for id, st := range states {
		st.mu.Lock()
		opts := st.options
		opts.Filter = st.options.Filter.Clone()
		st.mu.Unlock()

		opts.Filter.QueryUser = nil
		snap.Panels[id] = &opts
	}
	return snap
}

func (s *AnnotationService) Restore(snap *models.PanelSnapshot) {
	if snap == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, opts := range snap.Panels {
		if id == "" || opts == nil {
			continue
		}
		o := *opts
		o.Filter = opts.Filter.Clone()
		o.Normalize()
		s.panels[id] = &panelState{options: o}
	}
	s.metrics.SetPanelsTotal(len(s.panels))
	s.logger.Infof(providers.TypeApp, "Restored %d panels", len(snap.Panels))
}

func (s *AnnotationService) PanelCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.panels)
}

// StalePanels lists, sorted, the panels whose last refresh failed in transport.
func (s *AnnotationService) StalePanels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id, st := range s.panels {
		st.mu.Lock()
		if st.stale {
			ids = append(ids, id)
		}
		st.mu.Unlock()
	}
	slices.Sort(ids)
	return ids
}
