package structures

import (
	"net/http"
	"time"
)

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}

type Route struct {
	Url     string
	Handler http.Handler
}

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	FilePath     string        `yaml:"filePath" validate:"required|unixPath"`
	SaveInterval time.Duration `yaml:"saveInterval" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// GrafanaConfig points at the host platform's HTTP API (annotations and
// dashboard search).
type GrafanaConfig struct {
	URL      string        `yaml:"url" validate:"required|fullUrl"`
	APIKey   string        `yaml:"apiKey"`
	Timeout  time.Duration `yaml:"timeout"`
	RetryMax int           `yaml:"retryMax" validate:"uint"`
}

// DatasourceConfig describes one named time-series datasource.
type DatasourceConfig struct {
	Name     string `yaml:"name" validate:"required"`
	Type     string `yaml:"type" validate:"required|in:influxdb"`
	URL      string `yaml:"url" validate:"required|fullUrl"`
	Database string `yaml:"database" validate:"required"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// PanelDefaults seed the options of a panel seen for the first time.
type PanelDefaults struct {
	Limit                 int      `yaml:"limit" validate:"required|uint|min:1"`
	Tags                  []string `yaml:"tags"`
	OnlyFromThisDashboard bool     `yaml:"onlyFromThisDashboard"`
	OnlyInTimeRange       bool     `yaml:"onlyInTimeRange"`
	ShowTags              bool     `yaml:"showTags"`
	ShowUser              bool     `yaml:"showUser"`
	ShowTime              bool     `yaml:"showTime"`
	NavigateBefore        string   `yaml:"navigateBefore"`
	NavigateAfter         string   `yaml:"navigateAfter"`
	NavigateToPanel       bool     `yaml:"navigateToPanel"`
	NavigateToDashboard   bool     `yaml:"navigateToDashboard"`
	SelectedDatasource    string   `yaml:"selectedDatasource"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	WebServer   Server             `yaml:"webServer"`
	Persistence Persistence        `yaml:"persistence"`
	Logger      LoggerConfig       `yaml:"logger"`
	Cache       CacheConfig        `yaml:"cache"`
	Metrics     MetricsConfig      `yaml:"metrics"`
	Grafana     GrafanaConfig      `yaml:"grafana"`
	Datasources []DatasourceConfig `yaml:"datasources"`
	Panel       PanelDefaults      `yaml:"panel"`
}
