package backends

import (
	"annolist/internal/builder"
	"annolist/internal/providers"
	"annolist/internal/structures"
	"context"
	"net/http"
	"net/url"
)

const (
	queryPath     = "/query"
	influxBackend = "influxdb"
)

// InfluxClient runs InfluxQL statements over the 1.x HTTP API. Timestamps
// are requested in epoch milliseconds.
type InfluxClient struct {
	client *http.Client
	logger providers.Logger
}

func NewInfluxClient(client *http.Client, logger providers.Logger) *InfluxClient {
	return &InfluxClient{client: client, logger: logger}
}

func (c *InfluxClient) Query(ctx context.Context, ds structures.DatasourceConfig, q *builder.InfluxQuery) ([]byte, error) {
	stmt := q.String()
	c.logger.Debugf(providers.TypeBackend, "influx %s (%s): %s", ds.Name, ds.Database, stmt)

	params := url.Values{
		"db":    {ds.Database},
		"q":     {stmt},
		"epoch": {"ms"},
	}
	var auth func(*http.Request)
	if ds.Username != "" {
		auth = func(req *http.Request) {
			req.SetBasicAuth(ds.Username, ds.Password)
		}
	}
	return get(ctx, c.client, influxBackend, ds.URL, queryPath, params, auth)
}
