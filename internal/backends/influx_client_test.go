package backends

import (
	"annolist/internal/builder"
	"annolist/internal/models"
	"annolist/internal/structures"
	"annolist/internal/testutil"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func influxQuery() *builder.InfluxQuery {
	filter := &models.FilterState{Tags: []string{"deploy"}, Limit: 5, SelectedDatasource: "metrics"}
	return builder.BuildQuery(filter, 1, models.TimeRange{}).Influx
}

func TestInfluxClient_Query(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "telegraf", q.Get("db"))
		assert.Equal(t, "ms", q.Get("epoch"))
		assert.Equal(t, `SELECT * FROM events WHERE tags =~ /(^|,)deploy(,|$)/ LIMIT 5`, q.Get("q"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "reader", user)
		assert.Equal(t, "pw", pass)
		_, _ = w.Write([]byte(`{"results":[{"statement_id":0}]}`))
	}))
	defer srv.Close()

	c := NewInfluxClient(srv.Client(), &testutil.MockLogger{})
	ds := structures.DatasourceConfig{Name: "metrics", URL: srv.URL, Database: "telegraf", Username: "reader", Password: "pw"}

	body, err := c.Query(context.Background(), ds, influxQuery())
	require.NoError(t, err)
	assert.Contains(t, string(body), "statement_id")
}

func TestInfluxClient_NoAuthWithoutUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, ok := r.BasicAuth()
		assert.False(t, ok)
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c := NewInfluxClient(srv.Client(), &testutil.MockLogger{})
	_, err := c.Query(context.Background(), structures.DatasourceConfig{URL: srv.URL, Database: "db"}, influxQuery())
	assert.NoError(t, err)
}

func TestInfluxClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"error parsing query"}`))
	}))
	defer srv.Close()

	c := NewInfluxClient(srv.Client(), &testutil.MockLogger{})
	_, err := c.Query(context.Background(), structures.DatasourceConfig{URL: srv.URL, Database: "db"}, influxQuery())

	var te *models.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "influxdb", te.Backend)
	assert.Equal(t, http.StatusBadRequest, te.StatusCode)
}
