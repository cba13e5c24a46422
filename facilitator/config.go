package facilitator

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the facilitator daemon configuration. Secrets are injected
// through the environment, never written into the file:
//
//	CASCADE_RPC_URL       overrides rpc_url
//	CASCADE_WS_URL        overrides ws_url
//	CASCADE_EXECUTOR_KEY  base58 executor private key (env only)
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	RPCURL     string `yaml:"rpc_url"`
	WSURL      string `yaml:"ws_url"`
	Commitment string `yaml:"commitment"`

	PollInterval time.Duration `yaml:"poll_interval"`
	PollRetries  int           `yaml:"poll_retries"`

	ComputeUnitLimit uint32        `yaml:"compute_unit_limit"`
	SettlementTTL    time.Duration `yaml:"settlement_ttl"`

	ExecutorKey string `yaml:"-"`
}

// DefaultConfig returns the daemon defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:    ":8402",
		Commitment:    "confirmed",
		PollInterval:  time.Second,
		PollRetries:   30,
		SettlementTTL: DefaultSettlementTTL,
	}
}

// LoadConfig reads a YAML file (optional) and applies environment
// overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("CASCADE_RPC_URL"); v != "" {
		cfg.RPCURL = v
	}
	if v := os.Getenv("CASCADE_WS_URL"); v != "" {
		cfg.WSURL = v
	}
	cfg.ExecutorKey = os.Getenv("CASCADE_EXECUTOR_KEY")

	if cfg.RPCURL == "" {
		return Config{}, fmt.Errorf("rpc_url is required (config file or CASCADE_RPC_URL)")
	}
	if cfg.ExecutorKey == "" {
		return Config{}, fmt.Errorf("CASCADE_EXECUTOR_KEY is required")
	}
	return cfg, nil
}
