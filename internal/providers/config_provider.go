package providers

import (
	"annolist/internal/models"
	"annolist/internal/structures"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("cache.ttl", 60*time.Second)
	v.SetDefault("grafana.timeout", 10*time.Second)
	v.SetDefault("grafana.retryMax", 2)

	d := models.DefaultPanelOptions()
	v.SetDefault("panel.limit", d.Filter.Limit)
	v.SetDefault("panel.tags", []string{})
	v.SetDefault("panel.showTags", d.ShowTags)
	v.SetDefault("panel.showUser", d.ShowUser)
	v.SetDefault("panel.showTime", d.ShowTime)
	v.SetDefault("panel.navigateBefore", d.NavigateBefore)
	v.SetDefault("panel.navigateAfter", d.NavigateAfter)
	v.SetDefault("panel.navigateToPanel", d.NavigateToPanel)
	v.SetDefault("panel.navigateToDashboard", d.NavigateToDashboard)
	v.SetDefault("panel.selectedDatasource", d.Filter.SelectedDatasource)
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")
	setConfigDefaults(v)

	_ = v.BindEnv("logger.level", "ANNOLIST_LOG_LEVEL")
	_ = v.BindEnv("grafana.url", "ANNOLIST_GRAFANA_URL")
	_ = v.BindEnv("grafana.apiKey", "ANNOLIST_GRAFANA_API_KEY")
	_ = v.BindEnv("persistence.saveInterval", "ANNOLIST_SAVE_INTERVAL")
	_ = v.BindEnv("cache.enabled", "ANNOLIST_CACHE_ENABLED")
	_ = v.BindEnv("cache.size", "ANNOLIST_CACHE_SIZE")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "AnnotationListDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}

// PanelDefaultsToOptions turns the configured defaults into the options of
// a freshly seen panel.
func PanelDefaultsToOptions(d structures.PanelDefaults) models.PanelOptions {
	o := models.PanelOptions{
		Filter: models.FilterState{
			Tags:                  append([]string{}, d.Tags...),
			Limit:                 d.Limit,
			OnlyFromThisDashboard: d.OnlyFromThisDashboard,
			OnlyInTimeRange:       d.OnlyInTimeRange,
			SelectedDatasource:    d.SelectedDatasource,
		},
		ShowTags:            d.ShowTags,
		ShowUser:            d.ShowUser,
		ShowTime:            d.ShowTime,
		NavigateBefore:      d.NavigateBefore,
		NavigateAfter:       d.NavigateAfter,
		NavigateToPanel:     d.NavigateToPanel,
		NavigateToDashboard: d.NavigateToDashboard,
	}
	o.Normalize()
	return o
}
