// Package config loads driftcortex configuration from environment variables,
// an optional .env file and an optional YAML file, in that precedence order.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ScanConfig controls the scanner and parse cache.
type ScanConfig struct {
	Root          string   `json:"root" env:"DRIFT_SCAN_ROOT"`
	IgnorePattens []string `json:"ignore_patterns"`
	ForceFullScan bool     `json:"force_full_scan" env:"DRIFT_FORCE_FULL_SCAN"`
	ParseCacheCap int      `json:"parse_cache_cap" env:"DRIFT_PARSE_CACHE_CAP"`
	MaxWorkers    int      `json:"max_workers" env:"DRIFT_MAX_WORKERS"`
}

// StorageConfig controls the Drift storage kernel.
type StorageConfig struct {
	SQLitePath      string `json:"sqlite_path" env:"DRIFT_SQLITE_PATH"`
	EventLogPath    string `json:"event_log_path" env:"DRIFT_EVENT_LOG_PATH"`
	MaxReadConns    int    `json:"max_read_conns" env:"DRIFT_MAX_READ_CONNS"`
	BatchQueueDepth int    `json:"batch_queue_depth" env:"DRIFT_BATCH_QUEUE_DEPTH"`
	SnapshotEvery   int    `json:"snapshot_every" env:"DRIFT_SNAPSHOT_EVERY"`
}

// CortexStorageConfig controls the Cortex memory store backend.
type CortexStorageConfig struct {
	KivikDriver   string `json:"kivik_driver" env:"CORTEX_KIVIK_DRIVER"`
	KivikDSN      string `json:"kivik_dsn" env:"CORTEX_KIVIK_DSN"`
	KivikDatabase string `json:"kivik_database" env:"CORTEX_KIVIK_DATABASE"`
}

// LoggingConfig controls application logging.
type LoggingConfig struct {
	Level      string `json:"level" env:"LOG_LEVEL"`
	Format     string `json:"format" env:"LOG_FORMAT"`
	Output     string `json:"output" env:"LOG_OUTPUT"`
	FilePrefix string `json:"file_prefix" env:"LOG_FILE_PREFIX"`
}

// SyncConfig controls CRDT multi-agent sync.
type SyncConfig struct {
	AgentID           string            `json:"agent_id" env:"DRIFT_AGENT_ID"`
	Transport         string            `json:"transport" env:"DRIFT_SYNC_TRANSPORT"` // "memory", "redis", "amqp"
	RedisAddr         string            `json:"redis_addr" env:"DRIFT_SYNC_REDIS_ADDR"`
	AMQPURL           string            `json:"amqp_url" env:"DRIFT_SYNC_AMQP_URL"`
	TrustDecayHalfLife time.Duration    `json:"trust_decay_half_life"`
	PeerTags          map[string]string `json:"peer_tags"`
	PeerTagsEnv       string            `json:"-" yaml:"-" env:"DRIFT_SYNC_PEER_TAGS"`
}

// EnforcementConfig controls gate thresholds and policy aggregation mode.
type EnforcementConfig struct {
	PolicyMode          string  `json:"policy_mode" env:"DRIFT_POLICY_MODE"` // threshold|all_must_pass|any_may_fail
	ScoreThreshold      float64 `json:"score_threshold" env:"DRIFT_SCORE_THRESHOLD"`
	TestCoverageMinimum float64 `json:"test_coverage_minimum" env:"DRIFT_TEST_COVERAGE_MIN"`
}

// BridgeConfig controls the Drift->Cortex bridge.
type BridgeConfig struct {
	Enabled           bool          `json:"enabled" env:"BRIDGE_ENABLED"`
	LicenseTier       string        `json:"license_tier" env:"BRIDGE_LICENSE_TIER"` // community|team|enterprise
	GroundingInterval time.Duration `json:"grounding_interval"`
	GroundingCron     string        `json:"grounding_cron" env:"BRIDGE_GROUNDING_CRON"`
}

// Config is the top-level driftcortex configuration structure.
type Config struct {
	Scan        ScanConfig          `json:"scan"`
	Storage     StorageConfig       `json:"storage"`
	CortexStore CortexStorageConfig `json:"cortex_store"`
	Logging     LoggingConfig       `json:"logging"`
	Sync        SyncConfig          `json:"sync"`
	Enforcement EnforcementConfig   `json:"enforcement"`
	Bridge      BridgeConfig        `json:"bridge"`
}

// New returns a configuration populated with defaults.
func New() *Config {
	return &Config{
		Scan: ScanConfig{
			Root:          ".",
			ParseCacheCap: 4096,
			MaxWorkers:    0, // 0 = derive from runtime.NumCPU/gopsutil
		},
		Storage: StorageConfig{
			SQLitePath:      "drift.db",
			EventLogPath:    "drift-events.bbolt",
			MaxReadConns:    8,
			BatchQueueDepth: 1024,
			SnapshotEvery:   500,
		},
		CortexStore: CortexStorageConfig{
			KivikDriver:   "couch",
			KivikDSN:      "http://localhost:5984/",
			KivikDatabase: "cortex_memories",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stdout",
			FilePrefix: "driftcortex",
		},
		Sync: SyncConfig{
			Transport:          "memory",
			TrustDecayHalfLife: 30 * 24 * time.Hour,
		},
		Enforcement: EnforcementConfig{
			PolicyMode:          "threshold",
			ScoreThreshold:      0.8,
			TestCoverageMinimum: 0.6,
		},
		Bridge: BridgeConfig{
			Enabled:           true,
			LicenseTier:       "community",
			GroundingInterval: 10 * time.Minute,
			GroundingCron:     "@every 10m",
		},
	}
}

// Load loads configuration from an optional .env file, an optional YAML file
// (DRIFT_CONFIG_FILE or ./driftcortex.yaml) and environment variable overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := New()

	if path := strings.TrimSpace(os.Getenv("DRIFT_CONFIG_FILE")); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	} else {
		_ = loadFromFile("driftcortex.yaml", cfg)
	}

	if err := envdecode.Decode(cfg); err != nil {
		// envdecode errors when no tagged fields are present in the
		// environment; treat that as "no overrides" so local runs work
		// without exporting vars.
		if !strings.Contains(err.Error(), "none of the target fields were set") {
			return nil, fmt.Errorf("decode env: %w", err)
		}
	}

	cfg.normalize()
	return cfg, nil
}

// LoadFile reads configuration from a YAML file.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	expanded, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// LoadConfig reads configuration from a JSON snippet; used by tests.
func LoadConfig(path string) (*Config, error) {
	cfg := New()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

func (s *SyncConfig) normalize() {
	if s == nil {
		return
	}
	s.MergePeerTags(s.PeerTagsEnv)
}

// MergePeerTags merges comma-separated key=value pairs into PeerTags.
func (s *SyncConfig) MergePeerTags(raw string) {
	if s == nil {
		return
	}
	pairs := parseAttributePairs(raw)
	if len(pairs) == 0 {
		return
	}
	if s.PeerTags == nil {
		s.PeerTags = make(map[string]string, len(pairs))
	}
	for k, v := range pairs {
		if k == "" {
			continue
		}
		s.PeerTags[k] = v
	}
}

func parseAttributePairs(raw string) map[string]string {
	result := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		key := strings.TrimSpace(kv[0])
		if key == "" {
			continue
		}
		val := ""
		if len(kv) > 1 {
			val = strings.TrimSpace(kv[1])
		}
		result[key] = val
	}
	return result
}

func (c *Config) normalize() {
	if c == nil {
		return
	}
	c.Sync.normalize()
}
