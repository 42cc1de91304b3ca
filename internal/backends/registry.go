package backends

import (
	"annolist/internal/builder"
	"annolist/internal/models"
	"annolist/internal/structures"
	"context"
	"fmt"
)

type Registry struct {
	grafana     *GrafanaClient
	influx      *InfluxClient
	datasources map[string]structures.DatasourceConfig
	names       []string
}

func NewRegistry(conf *structures.Config, grafana *GrafanaClient, influx *InfluxClient) SourceInterface {
	r := &Registry{
		grafana:     grafana,
		influx:      influx,
		datasources: make(map[string]structures.DatasourceConfig, len(conf.Datasources)),
	}
	for _, ds := range conf.Datasources {
		r.datasources[ds.Name] = ds
		r.names = append(r.names, ds.Name)
	}
	r.names = append(r.names, models.NativeDatasource)
	return r
}

func (r *Registry) Fetch(ctx context.Context, q builder.BackendQuery) ([]byte, error) {
	switch q.Kind {
	case builder.KindNative:
		params, err := q.Native.Values()
		if err != nil {
			return nil, fmt.Errorf("encode native query: %w", err)
		}
		return r.grafana.GetAnnotations(ctx, params)
	case builder.KindInflux:
		ds, ok := r.datasources[q.Datasource]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDatasource, q.Datasource)
		}
		return r.influx.Query(ctx, ds, q.Influx)
	default:
		return nil, fmt.Errorf("unsupported query kind %d", q.Kind)
	}
}

// Datasources lists selectable names, time-series datasources first.
func (r *Registry) Datasources() []string {
	return append([]string(nil), r.names...)
}
