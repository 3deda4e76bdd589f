package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds the full application configuration.
type Config struct {
	Input   InputConfig   `yaml:"input" mapstructure:"input"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Build   BuildConfig   `yaml:"build" mapstructure:"build"`
	Runways RunwaysConfig `yaml:"runways" mapstructure:"runways"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Tiles   TilesConfig   `yaml:"tiles" mapstructure:"tiles"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// InputConfig locates the source artifacts.
type InputConfig struct {
	CIFP   string `yaml:"cifp" mapstructure:"cifp"`
	Format string `yaml:"format" mapstructure:"format"`
	// NASRCSV is the APT_BASE.csv export used for airport metadata.
	NASRCSV string `yaml:"nasr_csv" mapstructure:"nasr_csv"`
	// AirportDiagrams is the GeoJSON runway layer from airport diagrams,
	// conflated with the runways synthesized from CIFP.
	AirportDiagrams  string `yaml:"airport_diagrams" mapstructure:"airport_diagrams"`
	ClassAirspaceDir string `yaml:"class_airspace_dir" mapstructure:"class_airspace_dir"`
	SUA              string `yaml:"sua" mapstructure:"sua"`
	Boundary         string `yaml:"boundary" mapstructure:"boundary"`
	Holding          string `yaml:"holding" mapstructure:"holding"`
	Obstacles        string `yaml:"obstacles" mapstructure:"obstacles"`
}

// OutputConfig configures where layers are written.
type OutputConfig struct {
	Dir            string   `yaml:"dir" mapstructure:"dir"`
	GeoJSONLayers  []string `yaml:"geojson_layers" mapstructure:"geojson_layers"`
	PostgresURL    string   `yaml:"postgres_url" mapstructure:"postgres_url"`
	PostgresSchema string   `yaml:"postgres_schema" mapstructure:"postgres_schema"`
	// SearchIndex is the identifier search file name; empty disables it.
	SearchIndex string `yaml:"search_index" mapstructure:"search_index"`
}

// BuildConfig configures the synthesis pipeline.
type BuildConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// RunwaysConfig configures runway synthesis.
type RunwaysConfig struct {
	Surface string `yaml:"surface" mapstructure:"surface"`
}

// CacheConfig configures the metadata cache.
type CacheConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// TilesConfig configures the tile compiler.
type TilesConfig struct {
	Bin        string `yaml:"bin" mapstructure:"bin"`
	OutDir     string `yaml:"out_dir" mapstructure:"out_dir"`
	LayersFile string `yaml:"layers_file" mapstructure:"layers_file"`
}

// StoreConfig configures the run history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	// File, when set, receives a copy of every log line with rotation.
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("AEROTILES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key needs one so environment overrides are seen by
	// Unmarshal.
	v.SetDefault("input.cifp", "FAACIFP18")
	v.SetDefault("input.format", "auto")
	v.SetDefault("input.nasr_csv", "")
	v.SetDefault("input.airport_diagrams", "")
	v.SetDefault("input.class_airspace_dir", "shapefiles")
	v.SetDefault("input.sua", "data/sua_raw.geojson")
	v.SetDefault("input.boundary", "data/boundary_airspace_raw.geojson")
	v.SetDefault("input.holding", "data/holding_patterns_raw.geojson")
	v.SetDefault("input.obstacles", "data/dof_raw.geojson")
	v.SetDefault("output.dir", "data")
	v.SetDefault("output.geojson_layers", []string{"airports", "procedures"})
	v.SetDefault("output.postgres_url", "")
	v.SetDefault("output.postgres_schema", "aero")
	v.SetDefault("output.search_index", "search_index.json")
	v.SetDefault("build.concurrency", 4)
	v.SetDefault("runways.surface", "Unknown")
	v.SetDefault("cache.dir", ".cache")
	v.SetDefault("tiles.bin", "tippecanoe")
	v.SetDefault("tiles.out_dir", "output")
	v.SetDefault("tiles.layers_file", "")
	v.SetDefault("store.path", "aerotiles.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 64)
	v.SetDefault("log.max_backups", 3)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that required fields are present for the given mode.
// Valid modes: "build", "ais", "tiles".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "build":
		if c.Input.CIFP == "" {
			errs = append(errs, "input.cifp is required")
		}
		if c.Output.Dir == "" {
			errs = append(errs, "output.dir is required")
		}
		if c.Build.Concurrency < 1 || c.Build.Concurrency > 64 {
			errs = append(errs, "build.concurrency must be between 1 and 64")
		}
	case "ais":
		if c.Output.Dir == "" {
			errs = append(errs, "output.dir is required")
		}
	case "tiles":
		if c.Tiles.Bin == "" {
			errs = append(errs, "tiles.bin is required")
		}
		if c.Tiles.OutDir == "" {
			errs = append(errs, "tiles.out_dir is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger. When cfg.File is set, log
// lines are also written to a rotating file.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB, // MB
			MaxBackups: cfg.MaxBackups,
			Compress:   true,
		}
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(rotator),
			zapCfg.Level,
		)
		logger = logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, fileCore)
		}))
	}
	zap.ReplaceGlobals(logger)

	return nil
}
