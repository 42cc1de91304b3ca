package navigation

import (
	"annolist/internal/models"
	"context"
	"fmt"
	"strconv"
)

type Kind string

const (
	KindStay    Kind = "stay"
	KindRoute   Kind = "route"
	KindAborted Kind = "aborted"
)

const (
	WarnInvalidDashboard = "Invalid Annotation Dashboard"
	WarnUnknownDashboard = "Unknown Dashboard"
)

// Target is where clicking an annotation leads. Window is zero for aborted
// targets.
type Target struct {
	Kind    Kind                    `json:"kind"`
	Window  *models.TimeWindow      `json:"window,omitempty"`
	Path    string                  `json:"path,omitempty"`
	Params  map[string]string       `json:"params,omitempty"`
	Warning *models.NavigationError `json:"warning,omitempty"`
}

type Options struct {
	Before      string
	After       string
	ToPanel     bool
	ToDashboard bool
}

func OptionsFrom(o *models.PanelOptions) Options {
	return Options{
		Before:      o.NavigateBefore,
		After:       o.NavigateAfter,
		ToPanel:     o.NavigateToPanel,
		ToDashboard: o.NavigateToDashboard,
	}
}

// Context is the host's current navigation state.
type Context struct {
	DashboardID int64
	OrgID       string
}

type DashboardSearcher interface {
	SearchDashboards(ctx context.Context, dashboardID int64) ([]models.DashboardSummary, error)
}

// ResolveNavigationTarget decides where an annotation click goes. Warnings
// come back as an aborted target with a nil error; err is set only when the
// dashboard search itself failed.
func ResolveNavigationTarget(ctx context.Context, searcher DashboardSearcher, anno *models.Annotation, nav Context, opts Options) (*Target, error) {
	window := ResolveOffsetWindow(anno.Time, opts.Before, opts.After)

	if anno.DashboardID == nav.DashboardID {
		t := &Target{Kind: KindStay, Window: &window, Params: map[string]string{}}
		addPanelFocus(t.Params, anno, opts)
		return t, nil
	}

	if anno.DashboardID == 0 {
		return aborted(WarnInvalidDashboard, "Annotation on dashboard: 0 (new?)"), nil
	}

	dashboardID := nav.DashboardID
	if opts.ToDashboard {
		dashboardID = anno.DashboardID
	}

	res, err := searcher.SearchDashboards(ctx, dashboardID)
	if err != nil {
		return nil, fmt.Errorf("dashboard search for %d: %w", dashboardID, err)
	}
	if len(res) != 1 || res[0].ID != dashboardID {
		return aborted(fmt.Sprintf("%s: %d", WarnUnknownDashboard, dashboardID), ""), nil
	}

	params := map[string]string{
		"from": strconv.FormatInt(window.FromMillis(), 10),
		"to":   strconv.FormatInt(window.ToMillis(), 10),
	}
	addPanelFocus(params, anno, opts)
	if nav.OrgID != "" {
		params["orgId"] = nav.OrgID
	}

	return &Target{
		Kind:   KindRoute,
		Window: &window,
		Path:   dashboardPath(res[0]),
		Params: params,
	}, nil
}

// dashboardPath prefers the url field; dashboards served by hosts older
// than v5 only carry a uri.
func dashboardPath(d models.DashboardSummary) string {
	if d.URL != "" {
		return d.URL
	}
	return "/dashboard/" + d.URI
}

func addPanelFocus(params map[string]string, anno *models.Annotation, opts Options) {
	if !opts.ToPanel || anno.PanelID == nil {
		return
	}
	params["panelId"] = strconv.FormatInt(*anno.PanelID, 10)
	params["fullscreen"] = "true"
}

func aborted(title, message string) *Target {
	return &Target{
		Kind:    KindAborted,
		Warning: &models.NavigationError{Title: title, Message: message},
	}
}
