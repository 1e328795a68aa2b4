package model

import "time"

// Config holds the complete askroute configuration
type Config struct {
	Data         DataConfig        `yaml:"data" mapstructure:"data"`
	Engine       EngineConfig      `yaml:"engine" mapstructure:"engine"`
	Server       ServerConfig      `yaml:"server" mapstructure:"server"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Logging      LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	NATS         NATSConfig        `yaml:"nats" mapstructure:"nats"`
	Output       OutputConfig      `yaml:"output" mapstructure:"output"`
}

// DataConfig locates the two knowledge source files
type DataConfig struct {
	GeoFile        string        `yaml:"geo_file" mapstructure:"geo_file"`
	RegulationFile string        `yaml:"regulation_file" mapstructure:"regulation_file"`
	Watch          bool          `yaml:"watch" mapstructure:"watch"`       // Reload on file change
	Debounce       time.Duration `yaml:"debounce" mapstructure:"debounce"` // Quiet period before reloading
}

// EngineConfig tunes the question engine
type EngineConfig struct {
	DefaultTopK int `yaml:"default_top_k" mapstructure:"default_top_k"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	CORSOrigins  []string      `yaml:"cors_origins" mapstructure:"cors_origins"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	BodyLimit    string        `yaml:"body_limit" mapstructure:"body_limit"`

	// CIDRs of reverse proxies whose X-Forwarded-For is honored; empty uses the peer address
	TrustedProxies []string `yaml:"trusted_proxies" mapstructure:"trusted_proxies"`
}

// CacheConfig configures the answer cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	Dir       string        `yaml:"dir" mapstructure:"dir"` // Disk layer is disabled when empty
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// RateLimitConfig configures per-client request limits
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"` // 0 disables limiting
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig configures batch workers
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// NATSConfig configures the NATS request/reply responder
type NATSConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	URL     string `yaml:"url" mapstructure:"url"`
	Subject string `yaml:"subject" mapstructure:"subject"`
}

// OutputConfig controls CLI output
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			GeoFile:        "data/mock_geo_data.csv",
			RegulationFile: "data/mock_regulation_data.txt",
			Watch:          false,
			Debounce:       500 * time.Millisecond,
		},
		Engine: EngineConfig{
			DefaultTopK: 3,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8000,
			CORSOrigins: []string{
				"http://localhost:3000",
				"http://127.0.0.1:3000",
				"http://localhost:3001",
				"http://127.0.0.1:3001",
				"http://localhost:3002",
				"http://127.0.0.1:3002",
			},
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			BodyLimit:      "64K",
			TrustedProxies: []string{},
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 10 * time.Minute,
			Dir:       "",
			DiskTTL:   24 * time.Hour,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 20,
			BurstSize:         40,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		NATS: NATSConfig{
			Enabled: false,
			URL:     "nats://127.0.0.1:4222",
			Subject: "askroute.ask",
		},
		Output: OutputConfig{
			Verbose: false,
		},
	}
}
