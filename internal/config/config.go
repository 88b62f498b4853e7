package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/wopr-sim/wopr/internal/game"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "wopr.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds the embedded database settings.
type SQLiteConfig struct {
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// StreamConfig holds the websocket display stream settings.
type StreamConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// StorageConfig selects and configures the recording backend.
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
	Stream StreamConfig `json:"stream" mapstructure:"stream"`
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// InfluxConfig holds the turn metrics sink settings.
type InfluxConfig struct {
	Enabled    bool
	URL        string
	Token      string
	Org        string
	Bucket     string
	BackupPath string
}

// GraylogConfig holds GELF log shipping settings.
type GraylogConfig struct {
	Enabled bool
	Address string
}

// GameConfig holds simulation settings.
type GameConfig struct {
	MaxActions   int
	Seed         int64
	StartDate    time.Time
	RecentEvents int
}

// DBConfig holds the PostgreSQL connection settings.
type DBConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// APIConfig holds the display server upload settings.
type APIConfig struct {
	ServerURL string
	APIKey    string
	Upload    bool
}

// ServerConfig holds the HTTP command API settings.
type ServerConfig struct {
	Address string
}

// MonitorConfig holds the status file settings.
type MonitorConfig struct {
	Enabled    bool
	StatusPath string
	Interval   time.Duration
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./woprlogs")

	viper.SetDefault("game.maxActions", game.DefaultMaxActions)
	viper.SetDefault("game.seed", 0)
	viper.SetDefault("game.startDate", game.DefaultStartDate.Format("2006-01-02"))
	viper.SetDefault("game.recentEvents", game.DisplayEvents)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpPath", "./recordings/wopr.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.stream.url", "ws://localhost:5000/api/v1/stream")
	viper.SetDefault("storage.stream.secret", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "wopr")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.url", "http://localhost:8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "wopr")
	viper.SetDefault("influx.bucket", "wopr_turns")
	viper.SetDefault("influx.backupPath", "./recordings/influx_backup.lp.gz")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "wopr")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("server.address", "localhost:8080")

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")
	viper.SetDefault("api.upload", false)

	viper.SetDefault("monitor.enabled", true)
	viper.SetDefault("monitor.statusPath", "./woprlogs/status.json")
	viper.SetDefault("monitor.interval", "1s")
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStorageConfig returns the recording backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		Stream: StreamConfig{
			URL:    viper.GetString("storage.stream.url"),
			Secret: viper.GetString("storage.stream.secret"),
		},
	}
}

// GetDBConfig returns the PostgreSQL connection settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetInfluxConfig returns the metrics sink settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		URL:        viper.GetString("influx.url"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

// GetGraylogConfig returns the GELF settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetAPIConfig returns the display server upload settings.
func GetAPIConfig() APIConfig {
	return APIConfig{
		ServerURL: viper.GetString("api.serverUrl"),
		APIKey:    viper.GetString("api.apiKey"),
		Upload:    viper.GetBool("api.upload"),
	}
}

// GetServerConfig returns the HTTP command API settings.
func GetServerConfig() ServerConfig {
	return ServerConfig{Address: viper.GetString("server.address")}
}

// GetMonitorConfig returns the status file settings.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Enabled:    viper.GetBool("monitor.enabled"),
		StatusPath: viper.GetString("monitor.statusPath"),
		Interval:   viper.GetDuration("monitor.interval"),
	}
}

// GetGameConfig returns the simulation settings. An unparseable start date
// falls back to the default.
func GetGameConfig() GameConfig {
	start, err := time.Parse("2006-01-02", viper.GetString("game.startDate"))
	if err != nil {
		start = game.DefaultStartDate
	}
	return GameConfig{
		MaxActions:   viper.GetInt("game.maxActions"),
		Seed:         viper.GetInt64("game.seed"),
		StartDate:    start,
		RecentEvents: viper.GetInt("game.recentEvents"),
	}
}

// GetTheater returns the target tables. Any table missing from the
// configuration is taken from the default theater.
func GetTheater() (game.Theater, error) {
	th := game.DefaultTheater()
	if !viper.IsSet("theater") {
		return th, nil
	}

	var raw game.Theater
	if err := viper.UnmarshalKey("theater", &raw); err != nil {
		return th, fmt.Errorf("error decoding theater: %w", err)
	}

	if len(raw.Targets) > 0 {
		th.Targets = raw.Targets
	}
	// viper lower-cases map keys; target lookups are upper-case.
	if len(raw.CityRegions) > 0 {
		th.CityRegions = make(map[string]string, len(raw.CityRegions))
		for name, key := range raw.CityRegions {
			th.CityRegions[strings.ToUpper(name)] = key
		}
	}
	for name, route := range raw.Routes {
		th.Routes[strings.ToUpper(name)] = route
	}

	for _, c := range th.Targets {
		if _, ok := th.RegionFor(c.Name); !ok {
			return th, fmt.Errorf("target %q has no region mapping", c.Name)
		}
	}
	return th, nil
}
