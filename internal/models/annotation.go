package models

import (
	json "github.com/goccy/go-json"
	"time"
)

// Annotation is the backend-agnostic record produced by the normalizer.
// Time is epoch milliseconds. Fields holds every backend column that has no
// dedicated field here.
type Annotation struct {
	Time        int64
	DashboardID int64
	PanelID     *int64
	UserID      *int64
	Login       string
	Tags        []string
	Fields      map[string]any
}

// HasUser reports whether the record carries a user id.
func (a *Annotation) HasUser() bool {
	return a != nil && a.UserID != nil
}

func (a *Annotation) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(a.Fields)+6)
	for k, v := range a.Fields {
		out[k] = v
	}
	out["time"] = a.Time
	out["dashboardId"] = a.DashboardID
	if a.PanelID != nil {
		out["panelId"] = *a.PanelID
	}
	if a.UserID != nil {
		out["userId"] = *a.UserID
	}
	if a.Login != "" {
		out["login"] = a.Login
	}
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	out["tags"] = tags
	return json.Marshal(out)
}

// annotationRef is the shape clients post back when they click an entry.
type annotationRef struct {
	Time        int64    `json:"time"`
	DashboardID int64    `json:"dashboardId"`
	PanelID     *int64   `json:"panelId"`
	UserID      *int64   `json:"userId"`
	Login       string   `json:"login"`
	Tags        []string `json:"tags"`
}

func (a *Annotation) UnmarshalJSON(data []byte) error {
	var ref annotationRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return err
	}
	*a = Annotation{
		Time:        ref.Time,
		DashboardID: ref.DashboardID,
		PanelID:     ref.PanelID,
		UserID:      ref.UserID,
		Login:       ref.Login,
		Tags:        ref.Tags,
	}
	return nil
}

// TimeRange is the host's active range in epoch milliseconds.
type TimeRange struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

func (tr TimeRange) IsZero() bool {
	return tr.From == 0 && tr.To == 0
}

type TimeWindow struct {
	From time.Time
	To   time.Time
}

func (w TimeWindow) FromMillis() int64 {
	return w.From.UnixMilli()
}

func (w TimeWindow) ToMillis() int64 {
	return w.To.UnixMilli()
}

func (w TimeWindow) MarshalJSON() ([]byte, error) {
	return json.Marshal(TimeRange{From: w.FromMillis(), To: w.ToMillis()})
}

// DashboardSummary is one hit of the dashboard search API.
type DashboardSummary struct {
	ID    int64  `json:"id"`
	UID   string `json:"uid,omitempty"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
	URI   string `json:"uri,omitempty"`
}
