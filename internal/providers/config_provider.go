package providers

import (
	"fmt"
	"github.com/spf13/viper"
	"leadsync/internal/structures"
	"path/filepath"
	"strings"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	v.BindEnv("logger.level", "LEADSYNC_LOG_LEVEL")
	v.BindEnv("sheets.spreadsheetId", "LEADSYNC_SPREADSHEET_ID")
	v.BindEnv("oauth.clientSecret", "LEADSYNC_OAUTH_CLIENT_SECRET")
	v.BindEnv("validation.apiKey", "LEADSYNC_VALIDATION_API_KEY")
	v.BindEnv("workflow.statsRefreshUrl", "LEADSYNC_STATS_REFRESH_URL")
	v.BindEnv("lock.backend", "LEADSYNC_LOCK_BACKEND")
	v.BindEnv("lock.dsn", "LEADSYNC_LOCK_DSN")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	conf.ApplyDefaults()

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "LeadSync"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
