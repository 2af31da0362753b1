// Package config handles command line, environment and sources file configuration.
package config

import (
	"agri_service/internal/domain/model"
	"agri_service/internal/telemetry"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type LogOptions struct {
	Level      string `long:"level"       env:"LEVEL"       description:"Log level"                        default:"info"`
	Format     string `long:"format"      env:"FORMAT"      description:"Log format (text or json)"        default:"text"`
	Output     string `long:"output"      env:"OUTPUT"      description:"stdout, stderr or a file path"    default:"stdout"`
	Rotation   bool   `long:"rotation"    env:"ROTATION"    description:"Rotate file output"`
	MaxSize    int    `long:"max-size"    env:"MAX_SIZE"    description:"Rotated file size in MB"          default:"100"`
	MaxBackups int    `long:"max-backups" env:"MAX_BACKUPS" description:"Rotated files to keep"            default:"3"`
	MaxAge     int    `long:"max-age"     env:"MAX_AGE"     description:"Days to keep rotated files"       default:"28"`
}

type TracingOptions struct {
	OTLPEndpoint string `long:"otlp-endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" description:"OTLP/HTTP collector host:port, tracing is off when empty"`
	Insecure     bool   `long:"otlp-insecure" env:"OTEL_EXPORTER_OTLP_INSECURE" description:"Disable TLS for the OTLP exporter"`
	ServiceName  string `long:"service-name"  env:"OTEL_SERVICE_NAME"           description:"Service name reported in traces" default:"agri_service"`
	Environment  string `long:"environment"   env:"ENVIRONMENT"                 description:"Deployment environment"         default:"development"`
}

type Options struct {
	Log     LogOptions     `group:"Logger options" namespace:"log" env-namespace:"LOG"`
	Tracing TracingOptions `group:"Tracing options"`

	SourcesFile string `short:"c" long:"sources" env:"SOURCES_FILE" description:"YAML file listing coordinate files and fallback coordinates"`
	Addr        string `short:"a" long:"addr"    env:"LISTEN_ADDRESS" description:"Address to listen on" default:"0.0.0.0"`
	Port        int    `short:"p" long:"port"    env:"PORT"           description:"Port to listen on"    default:"8000"`

	OverpassURL     string        `long:"overpass-url"     env:"OVERPASS_URL"     description:"Overpass interpreter endpoint"       default:"https://overpass-api.de/api/interpreter"`
	OverpassTimeout time.Duration `long:"overpass-timeout" env:"OVERPASS_TIMEOUT" description:"HTTP timeout of the catalog query"    default:"300s"`
	CatalogBBox     string        `long:"bbox"             env:"CATALOG_BBOX"     description:"Bounding box of the catalog query"   default:"26.0,36.0,45.0,42.0"`
	CacheFile       string        `long:"cache-file"       env:"WATER_CACHE_FILE" description:"Water source cache file"             default:"turkiye_water_sources_cache.json"`

	RedisAddr     string `long:"redis-addr"     env:"REDIS_ADDR"     description:"Redis address for the shared catalog cache, disabled when empty"`
	RedisPassword string `long:"redis-password" env:"REDIS_PASSWORD" description:"Redis password"`
	RedisDB       int    `long:"redis-db"       env:"REDIS_DB"       description:"Redis database"  default:"0"`
	RedisKey      string `long:"redis-key"      env:"REDIS_KEY"      description:"Redis key"       default:"agri:water_sources"`

	PostgresURL string `long:"postgres-url" env:"POSTGRES_URL" description:"Postgres DSN for analysis history, disabled when empty"`

	PoolSize      int   `long:"pool-size"       env:"POOL_SIZE"       description:"Concurrent scoring workers"           default:"6"`
	RandomSeed    int64 `long:"random-seed"     env:"RANDOM_SEED"     description:"Seed for attribute estimates, 0 uses the clock" default:"0"`
	RankByArrival bool  `long:"rank-by-arrival" env:"RANK_BY_ARRIVAL" description:"Order top areas by completion instead of score"`
}

// LogConfig converts the flag group into the telemetry config.
func (o LogOptions) LogConfig() telemetry.LogConfig {
	cfg := telemetry.DefaultLogConfig()
	cfg.Level = o.Level
	cfg.Format = o.Format
	cfg.Output = o.Output
	cfg.Rotation = o.Rotation
	cfg.MaxSize = o.MaxSize
	cfg.MaxBackups = o.MaxBackups
	cfg.MaxAge = o.MaxAge
	return cfg
}

// Load reads env files (missing ones are skipped) and parses args on top of the
// environment.
func Load(args []string, envFiles ...string) (*Options, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var opts Options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	if _, err := model.ParseBBox(opts.CatalogBBox); err != nil {
		return nil, fmt.Errorf("invalid catalog bbox: %w", err)
	}
	if opts.PoolSize <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", opts.PoolSize)
	}

	return &opts, nil
}

// IsHelp reports whether err is the go-flags help request.
func IsHelp(err error) bool {
	var flagsErr *flags.Error
	return errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp
}

// Sources lists where analysis coordinates come from.
type Sources struct {
	CoordinateFiles     []string           `yaml:"coordinate_files"`
	FallbackCoordinates []model.Coordinate `yaml:"fallback_coordinates"`
}

// LoadSources reads the sources file. An empty path yields empty Sources so the
// built-in defaults apply.
func LoadSources(path string) (*Sources, error) {
	if path == "" {
		return &Sources{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var sources Sources
	if err := yaml.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	for i, c := range sources.FallbackCoordinates {
		if !model.TurkeyRegion.Contains(c.Lat, c.Lon) {
			return nil, fmt.Errorf("fallback coordinate %d (%v, %v) is outside the analysis region %s",
				i, c.Lat, c.Lon, model.TurkeyRegion.String())
		}
	}

	return &sources, nil
}
