package models

import "time"

const DefaultNavigateOffset = "10m"

// PanelOptions is the persisted configuration of one panel placement.
type PanelOptions struct {
	Filter              FilterState `json:"filter"`
	ShowTags            bool        `json:"showTags"`
	ShowUser            bool        `json:"showUser"`
	ShowTime            bool        `json:"showTime"`
	NavigateBefore      string      `json:"navigateBefore"`
	NavigateAfter       string      `json:"navigateAfter"`
	NavigateToPanel     bool        `json:"navigateToPanel"`
	NavigateToDashboard bool        `json:"navigateToDashboard"`
}

func DefaultPanelOptions() PanelOptions {
	return PanelOptions{
		Filter: FilterState{
			Tags:               []string{},
			Limit:              DefaultLimit,
			SelectedDatasource: NativeDatasource,
		},
		ShowTags:            true,
		ShowUser:            true,
		ShowTime:            true,
		NavigateBefore:      DefaultNavigateOffset,
		NavigateAfter:       DefaultNavigateOffset,
		NavigateToPanel:     true,
		NavigateToDashboard: true,
	}
}

// Normalize fills zero values a client may leave out.
func (o *PanelOptions) Normalize() {
	if o.Filter.Limit <= 0 {
		o.Filter.Limit = DefaultLimit
	}
	if o.Filter.Tags == nil {
		o.Filter.Tags = []string{}
	}
	if o.Filter.SelectedDatasource == "" {
		o.Filter.SelectedDatasource = NativeDatasource
	}
	if o.NavigateBefore == "" {
		o.NavigateBefore = DefaultNavigateOffset
	}
	if o.NavigateAfter == "" {
		o.NavigateAfter = DefaultNavigateOffset
	}
}

// PanelView is what a panel renders after a refresh cycle.
type PanelView struct {
	Panel     string        `json:"panel"`
	Found     []*Annotation `json:"found"`
	TimeInfo  string        `json:"timeInfo"`
	Options   PanelOptions  `json:"options"`
	Stale     bool          `json:"stale"`
	Error     string        `json:"error,omitempty"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// PanelSnapshot is the on-disk format of all panel configurations.
type PanelSnapshot struct {
	Version int                      `json:"version"`
	Panels  map[string]*PanelOptions `json:"panels"`
}

const SnapshotVersion = 1
