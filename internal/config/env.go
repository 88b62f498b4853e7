package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

// EnvOverrides are environment variables that take precedence over the
// config file. Unset variables leave the file value alone.
type EnvOverrides struct {
	LogLevel      string `env:"WOPR_LOG_LEVEL"`
	StorageType   string `env:"WOPR_STORAGE_TYPE"`
	OutputDir     string `env:"WOPR_OUTPUT_DIR"`
	StreamURL     string `env:"WOPR_STREAM_URL"`
	StreamSecret  string `env:"WOPR_STREAM_SECRET"`
	DBHost        string `env:"WOPR_DB_HOST"`
	DBPort        string `env:"WOPR_DB_PORT"`
	DBUsername    string `env:"WOPR_DB_USERNAME"`
	DBPassword    string `env:"WOPR_DB_PASSWORD"`
	DBDatabase    string `env:"WOPR_DB_DATABASE"`
	InfluxToken   string `env:"WOPR_INFLUX_TOKEN"`
	APIKey        string `env:"WOPR_API_KEY"`
	ServerAddress string `env:"WOPR_SERVER_ADDRESS"`
	Seed          *int64 `env:"WOPR_SEED"`
	OTelEnabled   *bool  `env:"WOPR_OTEL_ENABLED"`
}

// ParseEnv reads the overrides from the environment.
func ParseEnv() (EnvOverrides, error) {
	var o EnvOverrides
	if err := env.Parse(&o); err != nil {
		return o, fmt.Errorf("parse env: %w", err)
	}
	return o, nil
}

// ApplyEnv parses the environment and writes every set override into the
// active configuration.
func ApplyEnv() error {
	o, err := ParseEnv()
	if err != nil {
		return err
	}
	o.Apply()
	return nil
}

// Apply writes the non-empty overrides into the active configuration.
func (o EnvOverrides) Apply() {
	strs := map[string]string{
		"logLevel":                 o.LogLevel,
		"storage.type":             o.StorageType,
		"storage.memory.outputDir": o.OutputDir,
		"storage.stream.url":       o.StreamURL,
		"storage.stream.secret":    o.StreamSecret,
		"db.host":                  o.DBHost,
		"db.port":                  o.DBPort,
		"db.username":              o.DBUsername,
		"db.password":              o.DBPassword,
		"db.database":              o.DBDatabase,
		"influx.token":             o.InfluxToken,
		"api.apiKey":               o.APIKey,
		"server.address":           o.ServerAddress,
	}
	for key, v := range strs {
		if v != "" {
			viper.Set(key, v)
		}
	}
	if o.Seed != nil {
		viper.Set("game.seed", *o.Seed)
	}
	if o.OTelEnabled != nil {
		viper.Set("otel.enabled", *o.OTelEnabled)
	}
}
