package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Config holds the server settings.
type Config struct {
	DB           string
	Addr         string
	LogPath      string
	ImagesDir    string
	QRSize       int
	LowStock     int
	TopLimit     int
	OpTimeout    time.Duration
	MaxRetries   int
	RateLimit    float64
	RateBurst    int
	OtelEndpoint string
	OtelInsecure bool
}

// ErrHelp is returned when -h or -help was given.
var ErrHelp = flag.ErrHelp

const usage = `Usage: blagajna [flags]

Flags:
  -d, -db <dsn>              SQLite path or postgres:// URL (default: blagajna.sqlite3)
  -a, -addr <host:port>      listen address (default: :8080)
  -l, -log <path>            log file path (default: no file, stdout/stderr only)
  -i, -images <dir>          directory for generated QR codes (default: static/qr_codes)
      -qr-size <px>          QR code edge length (default: 256)
      -low-stock <n>         low-stock alert threshold (default: 5)
      -top <n>               number of top sellers reported (default: 5)
      -op-timeout <dur>      timeout per store operation (default: 5s)
      -retries <n>           retries after a transient store failure (default: 3)
      -rate <n>              write requests per second, 0 disables (default: 20)
      -burst <n>             write request burst (default: 40)
      -otel-endpoint <host>  OTLP/HTTP trace collector, empty disables
      -otel-insecure         use plain HTTP for the collector
  -h, -help                  show this help and exit

Every flag can also be set with BLAGAJNA_<NAME> in the environment, e.g.
BLAGAJNA_DB, BLAGAJNA_ADDR, BLAGAJNA_OTEL_ENDPOINT. Flags take precedence.
`

// Load parses args on top of defaults overridden by environment variables
// read through getenv.
func Load(args []string, getenv func(string) string, output io.Writer) (*Config, error) {
	env := envReader{getenv: getenv}
	cfg := &Config{
		DB:           env.str("DB", "blagajna.sqlite3"),
		Addr:         env.str("ADDR", ":8080"),
		LogPath:      env.str("LOG", ""),
		ImagesDir:    env.str("IMAGES", "static/qr_codes"),
		QRSize:       env.int("QR_SIZE", 256),
		LowStock:     env.int("LOW_STOCK", 5),
		TopLimit:     env.int("TOP", 5),
		OpTimeout:    env.duration("OP_TIMEOUT", 5*time.Second),
		MaxRetries:   env.int("RETRIES", 3),
		RateLimit:    env.float("RATE", 20),
		RateBurst:    env.int("BURST", 40),
		OtelEndpoint: env.str("OTEL_ENDPOINT", ""),
		OtelInsecure: env.bool("OTEL_INSECURE", false),
	}
	if env.err != nil {
		return nil, env.err
	}

	fs := flag.NewFlagSet("blagajna", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cfg.DB, "db", cfg.DB, "")
	fs.StringVar(&cfg.DB, "d", cfg.DB, "")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "")
	fs.StringVar(&cfg.LogPath, "log", cfg.LogPath, "")
	fs.StringVar(&cfg.LogPath, "l", cfg.LogPath, "")
	fs.StringVar(&cfg.ImagesDir, "images", cfg.ImagesDir, "")
	fs.StringVar(&cfg.ImagesDir, "i", cfg.ImagesDir, "")
	fs.IntVar(&cfg.QRSize, "qr-size", cfg.QRSize, "")
	fs.IntVar(&cfg.LowStock, "low-stock", cfg.LowStock, "")
	fs.IntVar(&cfg.TopLimit, "top", cfg.TopLimit, "")
	fs.DurationVar(&cfg.OpTimeout, "op-timeout", cfg.OpTimeout, "")
	fs.IntVar(&cfg.MaxRetries, "retries", cfg.MaxRetries, "")
	fs.Float64Var(&cfg.RateLimit, "rate", cfg.RateLimit, "")
	fs.IntVar(&cfg.RateBurst, "burst", cfg.RateBurst, "")
	fs.StringVar(&cfg.OtelEndpoint, "otel-endpoint", cfg.OtelEndpoint, "")
	fs.BoolVar(&cfg.OtelInsecure, "otel-insecure", cfg.OtelInsecure, "")

	fs.Usage = func() { fmt.Fprint(output, usage) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DB == "":
		return errors.New("database path must not be empty")
	case c.LowStock < 0:
		return errors.New("low-stock threshold must not be negative")
	case c.TopLimit <= 0:
		return errors.New("top limit must be positive")
	case c.OpTimeout <= 0:
		return errors.New("op-timeout must be positive")
	case c.MaxRetries < 0:
		return errors.New("retries must not be negative")
	case c.RateLimit < 0:
		return errors.New("rate must not be negative")
	case c.RateLimit > 0 && c.RateBurst <= 0:
		return errors.New("burst must be positive when rate limiting is enabled")
	}
	return nil
}

// envReader reads BLAGAJNA_* variables and keeps the first parse error.
type envReader struct {
	getenv func(string) string
	err    error
}

func (e *envReader) lookup(name string) (string, bool) {
	key := "BLAGAJNA_" + name
	v := e.getenv(key)
	return v, v != ""
}

func (e *envReader) str(name, def string) string {
	if v, ok := e.lookup(name); ok {
		return v
	}
	return def
}

func (e *envReader) int(name string, def int) int {
	v, ok := e.lookup(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(name, err)
		return def
	}
	return n
}

func (e *envReader) float(name string, def float64) float64 {
	v, ok := e.lookup(name)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(name, err)
		return def
	}
	return f
}

func (e *envReader) bool(name string, def bool) bool {
	v, ok := e.lookup(name)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(name, err)
		return def
	}
	return b
}

func (e *envReader) duration(name string, def time.Duration) time.Duration {
	v, ok := e.lookup(name)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(name, err)
		return def
	}
	return d
}

func (e *envReader) fail(name string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("parsing BLAGAJNA_%s: %w", name, err)
	}
}
