package normalizer

import (
	"annolist/internal/builder"
	"annolist/internal/models"
	"bytes"
	"errors"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/hashicorp/go-multierror"
)

const (
	fieldTime        = "time"
	fieldDashboardID = "dashboardId"
	fieldPanelID     = "panelId"
	fieldUserID      = "userId"
	fieldLogin       = "login"
	fieldTags        = "tags"
)

// Normalize turns a raw backend body into annotation records. Records that
// could be built are returned even when err is non-nil; err then aggregates
// one *models.DataShapeError per skipped entry.
func Normalize(raw []byte, kind builder.Kind, fallbackDashboardID int64) ([]*models.Annotation, error) {
	if kind == builder.KindInflux {
		return NormalizeColumnar(raw, fallbackDashboardID)
	}
	return NormalizeNative(raw)
}

// NormalizeNative handles the flat JSON array of the native annotation API.
func NormalizeNative(raw []byte) ([]*models.Annotation, error) {
	var entries []map[string]any
	if err := decode(raw, &entries); err != nil {
		return nil, &models.DataShapeError{Row: -1, Reason: err.Error()}
	}

	var errs *multierror.Error
	found := make([]*models.Annotation, 0, len(entries))
	for i, entry := range entries {
		anno, err := fromFields(entry, nil)
		if err != nil {
			errs = multierror.Append(errs, &models.DataShapeError{Row: i, Reason: err.Error()})
			continue
		}
		found = append(found, anno)
	}
	return found, errs.ErrorOrNil()
}

type columnarResponse struct {
	Results []columnarResult `json:"results"`
}

type columnarResult struct {
	Series []columnarSeries `json:"series"`
	Error  string           `json:"error"`
}

type columnarSeries struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Values  [][]any  `json:"values"`
}

// NormalizeColumnar zips the columns of every series against each value row.
// A missing dashboardId is filled with fallbackDashboardID.
func NormalizeColumnar(raw []byte, fallbackDashboardID int64) ([]*models.Annotation, error) {
	var resp columnarResponse
	if err := decode(raw, &resp); err != nil {
		return nil, &models.DataShapeError{Row: -1, Reason: err.Error()}
	}

	var errs *multierror.Error
	found := make([]*models.Annotation, 0)
	for _, res := range resp.Results {
		if res.Error != "" {
			return nil, &models.TransportError{Backend: builder.KindInflux.String(), StatusCode: 200, Err: errors.New(res.Error)}
		}
		for si, series := range res.Series {
			for ri, row := range series.Values {
				if len(row) != len(series.Columns) {
					errs = multierror.Append(errs, &models.DataShapeError{
						Series: si,
						Row:    ri,
						Reason: "got " + strconv.Itoa(len(row)) + " values for " + strconv.Itoa(len(series.Columns)) + " columns",
					})
					continue
				}
				fields := make(map[string]any, len(row))
				for i, col := range series.Columns {
					fields[col] = row[i]
				}
				anno, err := fromFields(fields, &fallbackDashboardID)
				if err != nil {
					errs = multierror.Append(errs, &models.DataShapeError{Series: si, Row: ri, Reason: err.Error()})
					continue
				}
				found = append(found, anno)
			}
		}
	}
	return found, errs.ErrorOrNil()
}

func decode(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// fromFields extracts the known fields and keeps the rest opaque. A nil
// fallback leaves a missing dashboardId at zero.
func fromFields(fields map[string]any, fallbackDashboardID *int64) (*models.Annotation, error) {
	rawTime, ok := fields[fieldTime]
	if !ok || rawTime == nil {
		return nil, errors.New("missing time field")
	}
	ts, ok := toMillis(rawTime)
	if !ok {
		return nil, errors.New("unreadable time field")
	}

	anno := &models.Annotation{Time: ts, Tags: []string{}}

	if id, ok := toInt64(fields[fieldDashboardID]); ok {
		anno.DashboardID = id
	} else if fallbackDashboardID != nil {
		anno.DashboardID = *fallbackDashboardID
	}
	if id, ok := toInt64(fields[fieldPanelID]); ok {
		anno.PanelID = &id
	}
	if id, ok := toInt64(fields[fieldUserID]); ok {
		anno.UserID = &id
	}
	if login, ok := fields[fieldLogin].(string); ok {
		anno.Login = login
	}
	anno.Tags = splitTags(fields[fieldTags])

	for k, v := range fields {
		switch k {
		case fieldTime, fieldDashboardID, fieldPanelID, fieldUserID, fieldLogin, fieldTags:
			continue
		}
		if anno.Fields == nil {
			anno.Fields = make(map[string]any)
		}
		anno.Fields[k] = v
	}
	return anno, nil
}

// splitTags accepts the comma-joined string of the columnar backend and the
// JSON array of the native one.
func splitTags(v any) []string {
	tags := []string{}
	switch t := v.(type) {
	case string:
		if t == "" {
			return tags
		}
		for _, tag := range strings.Split(t, ",") {
			if tag != "" {
				tags = append(tags, tag)
			}
		}
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				tags = append(tags, s)
			}
		}
	}
	return tags
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(f), true
		}
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

func toMillis(v any) (int64, bool) {
	if s, ok := v.(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.UnixMilli(), true
		}
	}
	return toInt64(v)
}
