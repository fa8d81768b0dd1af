package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// EngineConfig holds the engine parameters, fixed at construction.
type EngineConfig struct {
	DisplacementL    float64 `json:"displacementL" mapstructure:"displacementL"`
	Cylinders        int     `json:"cylinders" mapstructure:"cylinders"`
	CompressionRatio float64 `json:"compressionRatio" mapstructure:"compressionRatio"`
	Turbo            bool    `json:"turbo" mapstructure:"turbo"`
}

// TransmissionConfig holds the gearbox parameters, fixed at construction.
type TransmissionConfig struct {
	Type     string `json:"type" mapstructure:"type"`
	MaxGears int    `json:"maxGears" mapstructure:"maxGears"`
}

// SimConfig holds the tick loop parameters.
type SimConfig struct {
	TickInterval   time.Duration
	ObserverBuffer int
}

// VehicleConfig identifies the simulated vehicle.
type VehicleConfig struct {
	ID           string  `json:"id" mapstructure:"id"`
	OdometerSeed float64 `json:"odometerSeed" mapstructure:"odometerSeed"`
	AmbientTemp  float64 `json:"ambientTemp" mapstructure:"ambientTemp"`
}

// RouteConfig parameterizes the synthetic position track.
type RouteConfig struct {
	OriginLat float64 `json:"originLat" mapstructure:"originLat"`
	OriginLon float64 `json:"originLon" mapstructure:"originLon"`
	RadiusKm  float64 `json:"radiusKm" mapstructure:"radiusKm"`
}

// MemoryConfig holds in-memory/JSON storage backend settings.
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
	MaxSnapshots   int    `json:"maxSnapshots" mapstructure:"maxSnapshots"`
}

// SQLiteConfig holds relational storage backend settings.
type SQLiteConfig struct {
	DumpInterval time.Duration
	DumpPath     string
}

// WebsocketConfig holds streaming backend settings.
type WebsocketConfig struct {
	URL    string `json:"url" mapstructure:"url"`
	Secret string `json:"secret" mapstructure:"secret"`
}

// StorageConfig selects and configures the telemetry history backend.
type StorageConfig struct {
	Type      string
	Memory    MemoryConfig
	SQLite    SQLiteConfig
	Websocket WebsocketConfig
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./cansimlogs")

	viper.SetDefault("vehicle.id", "SIM-1")
	viper.SetDefault("vehicle.odometerSeed", 125847.5)
	viper.SetDefault("vehicle.ambientTemp", 20.0)

	viper.SetDefault("engine.displacementL", 2.0)
	viper.SetDefault("engine.cylinders", 4)
	viper.SetDefault("engine.compressionRatio", 10.5)
	viper.SetDefault("engine.turbo", true)

	viper.SetDefault("transmission.type", "automatic")
	viper.SetDefault("transmission.maxGears", 6)

	viper.SetDefault("sim.tickInterval", "50ms")
	viper.SetDefault("sim.observerBuffer", 1024)

	viper.SetDefault("route.originLat", 52.5200)
	viper.SetDefault("route.originLon", 13.4050)
	viper.SetDefault("route.radiusKm", 2.5)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.memory.maxSnapshots", 72000)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.sqlite.dumpPath", "./cansim.db")
	viper.SetDefault("storage.websocket.url", "ws://localhost:5001/ws")
	viper.SetDefault("storage.websocket.secret", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "cansim")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "cansim-metrics")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("api.serverUrl", "http://localhost:5000/api")
	viper.SetDefault("api.apiKey", "")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "cansim")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetConfigName("cansim.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
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

// GetEngineConfig returns the engine section.
func GetEngineConfig() EngineConfig {
	return EngineConfig{
		DisplacementL:    viper.GetFloat64("engine.displacementL"),
		Cylinders:        viper.GetInt("engine.cylinders"),
		CompressionRatio: viper.GetFloat64("engine.compressionRatio"),
		Turbo:            viper.GetBool("engine.turbo"),
	}
}

// GetTransmissionConfig returns the transmission section.
func GetTransmissionConfig() TransmissionConfig {
	return TransmissionConfig{
		Type:     viper.GetString("transmission.type"),
		MaxGears: viper.GetInt("transmission.maxGears"),
	}
}

// GetVehicleConfig returns the vehicle section.
func GetVehicleConfig() VehicleConfig {
	return VehicleConfig{
		ID:           viper.GetString("vehicle.id"),
		OdometerSeed: viper.GetFloat64("vehicle.odometerSeed"),
		AmbientTemp:  viper.GetFloat64("vehicle.ambientTemp"),
	}
}

// GetRouteConfig returns the route section.
func GetRouteConfig() RouteConfig {
	return RouteConfig{
		OriginLat: viper.GetFloat64("route.originLat"),
		OriginLon: viper.GetFloat64("route.originLon"),
		RadiusKm:  viper.GetFloat64("route.radiusKm"),
	}
}

// GetSimConfig returns the tick loop section. A malformed interval falls back
// to the 50ms default rather than failing, matching the tolerant read path.
func GetSimConfig() SimConfig {
	interval, err := time.ParseDuration(viper.GetString("sim.tickInterval"))
	if err != nil || interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return SimConfig{
		TickInterval:   interval,
		ObserverBuffer: viper.GetInt("sim.observerBuffer"),
	}
}

// GetStorageConfig returns the storage section.
func GetStorageConfig() StorageConfig {
	dumpInterval, err := time.ParseDuration(viper.GetString("storage.sqlite.dumpInterval"))
	if err != nil {
		dumpInterval = 3 * time.Minute
	}
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
			MaxSnapshots:   viper.GetInt("storage.memory.maxSnapshots"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: dumpInterval,
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
		},
		Websocket: WebsocketConfig{
			URL:    viper.GetString("storage.websocket.url"),
			Secret: viper.GetString("storage.websocket.secret"),
		},
	}
}
