package builder

import (
	"annolist/internal/models"
	"net/url"

	"github.com/google/go-querystring/query"
	"github.com/influxdata/influxql"
)

type Kind int

const (
	KindNative Kind = iota
	KindInflux
)

func (k Kind) String() string {
	if k == KindInflux {
		return "influxdb"
	}
	return "native"
}

const (
	// AnnotationType skips alert annotations on the native API.
	AnnotationType = "annotation"
	// EventsMeasurement holds annotation points on the time-series backend.
	EventsMeasurement = "events"

	nanosPerMilli = 1_000_000
)

// NativeQuery is the parameter object of GET /api/annotations.
type NativeQuery struct {
	Tags        []string `url:"tags,omitempty"`
	Limit       int      `url:"limit"`
	Type        string   `url:"type"`
	DashboardID *int64   `url:"dashboardId,omitempty"`
	From        *int64   `url:"from,omitempty"`
	To          *int64   `url:"to,omitempty"`
	UserID      *int64   `url:"userId,omitempty"`
}

func (q *NativeQuery) Values() (url.Values, error) {
	return query.Values(q)
}

// InfluxQuery wraps the statement sent as the q parameter of /query.
type InfluxQuery struct {
	Statement *influxql.SelectStatement
}

func (q *InfluxQuery) String() string {
	return q.Statement.String()
}

// BackendQuery is a query for exactly one backend; only the member matching
// Kind is set.
type BackendQuery struct {
	Kind       Kind
	Datasource string
	Native     *NativeQuery
	Influx     *InfluxQuery
}

// BuildQuery translates a filter into a backend query. dashboardID and tr are
// the host's current dashboard and time range.
func BuildQuery(filter *models.FilterState, dashboardID int64, tr models.TimeRange) BackendQuery {
	if filter.IsNative() {
		return BackendQuery{
			Kind:       KindNative,
			Datasource: models.NativeDatasource,
			Native:     buildNative(filter, dashboardID, tr),
		}
	}
	return BackendQuery{
		Kind:       KindInflux,
		Datasource: filter.SelectedDatasource,
		Influx:     buildInflux(filter, dashboardID, tr),
	}
}

func buildNative(filter *models.FilterState, dashboardID int64, tr models.TimeRange) *NativeQuery {
	q := &NativeQuery{
		Tags:  filter.EffectiveTags(),
		Limit: limitOf(filter),
		Type:  AnnotationType,
	}
	if filter.OnlyFromThisDashboard {
		q.DashboardID = ptr(dashboardID)
	}
	if filter.OnlyInTimeRange {
		q.From = ptr(tr.From)
		q.To = ptr(tr.To)
	}
	if filter.QueryUser != nil {
		q.UserID = ptr(filter.QueryUser.ID)
	}
	return q
}

func buildInflux(filter *models.FilterState, dashboardID int64, tr models.TimeRange) *InfluxQuery {
	var conds []influxql.Expr

	if re := TagPattern(filter.EffectiveTags()); re != nil {
		conds = append(conds, &influxql.BinaryExpr{
			Op:  influxql.EQREGEX,
			LHS: &influxql.VarRef{Val: "tags"},
			RHS: &influxql.RegexLiteral{Val: re},
		})
	}

	if filter.OnlyInTimeRange {
		conds = append(conds, &influxql.ParenExpr{Expr: &influxql.BinaryExpr{
			Op: influxql.AND,
			LHS: &influxql.BinaryExpr{
				Op:  influxql.LTE,
				LHS: &influxql.IntegerLiteral{Val: tr.From * nanosPerMilli},
				RHS: &influxql.VarRef{Val: "time"},
			},
			RHS: &influxql.BinaryExpr{
				Op:  influxql.LTE,
				LHS: &influxql.VarRef{Val: "time"},
				RHS: &influxql.IntegerLiteral{Val: tr.To * nanosPerMilli},
			},
		}})
	}

	if filter.OnlyFromThisDashboard {
		conds = append(conds, equals("dashboardId", dashboardID))
	}

	if filter.QueryUser != nil {
		conds = append(conds, equals("userId", filter.QueryUser.ID))
	}

	return &InfluxQuery{Statement: &influxql.SelectStatement{
		Fields:    influxql.Fields{{Expr: &influxql.Wildcard{}}},
		Sources:   influxql.Sources{&influxql.Measurement{Name: EventsMeasurement}},
		Condition: and(conds),
		Limit:     limitOf(filter),
	}}
}

func equals(field string, val int64) influxql.Expr {
	return &influxql.BinaryExpr{
		Op:  influxql.EQ,
		LHS: &influxql.VarRef{Val: field},
		RHS: &influxql.IntegerLiteral{Val: val},
	}
}

// and folds conditions left to right; nil when there are none.
func and(conds []influxql.Expr) influxql.Expr {
	var expr influxql.Expr
	for _, c := range conds {
		if expr == nil {
			expr = c
			continue
		}
		expr = &influxql.BinaryExpr{Op: influxql.AND, LHS: expr, RHS: c}
	}
	return expr
}

func limitOf(filter *models.FilterState) int {
	if filter.Limit <= 0 {
		return models.DefaultLimit
	}
	return filter.Limit
}

func ptr[T any](v T) *T {
	return &v
}
