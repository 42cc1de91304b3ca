package models

import "slices"

// NativeDatasource selects the host platform's own annotation store.
const NativeDatasource = "-- Grafana --"

const DefaultLimit = 10

// UserFilter pins the results to the annotations of one user.
type UserFilter struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// FilterState is the active query of one panel. Tags has set semantics;
// insertion order is kept so queries render deterministically.
type FilterState struct {
	Tags                  []string    `json:"tags"`
	Limit                 int         `json:"limit"`
	OnlyFromThisDashboard bool        `json:"onlyFromThisDashboard"`
	OnlyInTimeRange       bool        `json:"onlyInTimeRange"`
	SelectedDatasource    string      `json:"selectedDatasource"`
	QueryUser             *UserFilter `json:"queryUser,omitempty"`
	QueryTagValue         string      `json:"queryTagValue,omitempty"`
}

func (f *FilterState) IsNative() bool {
	return f.SelectedDatasource == "" || f.SelectedDatasource == NativeDatasource
}

func (f *FilterState) HasTag(tag string) bool {
	return slices.Contains(f.Tags, tag)
}

// ToggleTag removes tag when active and adds it otherwise. An empty tag
// resets the whole set.
func (f *FilterState) ToggleTag(tag string) {
	switch {
	case f.HasTag(tag):
		f.Tags = slices.DeleteFunc(slices.Clone(f.Tags), func(t string) bool { return t == tag })
	case tag != "":
		f.Tags = append(f.Tags, tag)
	default:
		f.Tags = []string{}
	}
}

// PinTag replaces the pinned tag, or clears it when the same tag (or an
// empty one) is pinned again.
func (f *FilterState) PinTag(tag string) {
	if tag == "" || f.QueryTagValue == tag {
		f.QueryTagValue = ""
		return
	}
	f.QueryTagValue = tag
}

// ToggleUser clears the user filter when it already targets the
// annotation's user, otherwise switches it to that user.
func (f *FilterState) ToggleUser(anno *Annotation) {
	if !anno.HasUser() {
		f.QueryUser = nil
		return
	}
	if f.QueryUser != nil && f.QueryUser.ID == *anno.UserID {
		f.QueryUser = nil
		return
	}
	f.QueryUser = &UserFilter{ID: *anno.UserID, Login: anno.Login}
}

// EffectiveTags is the tag set a query runs with: the general set plus the
// pinned tag.
func (f *FilterState) EffectiveTags() []string {
	tags := make([]string, 0, len(f.Tags)+1)
	for _, t := range f.Tags {
		if t != "" && !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}
	if f.QueryTagValue != "" && !slices.Contains(tags, f.QueryTagValue) {
		tags = append(tags, f.QueryTagValue)
	}
	return tags
}

// TimeInfo is the header shown above the list.
func (f *FilterState) TimeInfo() string {
	info := ""
	if !f.OnlyInTimeRange {
		info = "All Time"
	}
	if f.QueryUser != nil {
		if info != "" {
			info += " "
		}
		info += f.QueryUser.Login
	}
	return info
}

func (f FilterState) Clone() FilterState {
	c := f
	c.Tags = slices.Clone(f.Tags)
	if f.QueryUser != nil {
		u := *f.QueryUser
		c.QueryUser = &u
	}
	return c
}
