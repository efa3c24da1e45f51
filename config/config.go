// Package config contains objectmesh validator configuration definitions.
package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const defaultConfigFileName = "./config.toml"

// Config defines the top level configuration for an objectmesh validator.
type Config struct {
	BaseConfig `mapstructure:"main"`
	Protocol   ProtocolConfig   `mapstructure:"protocol"`
	Congestion CongestionConfig `mapstructure:"congestion"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	LOGGING    LoggerConfig     `mapstructure:"logging"`
}

// BaseConfig defines the default configuration options for the validator app.
type BaseConfig struct {
	ConfigFile string `mapstructure:"config"`

	CollectMetrics bool `mapstructure:"metrics"`
	MetricsPort    int  `mapstructure:"metrics-port"`

	NetworkHRP string `mapstructure:"network-hrp"`

	// Stake is this validator's stake, weighting its congestion observations.
	Stake uint64 `mapstructure:"stake"`
	// CommitteeStake is the total committee stake quorum is measured against.
	CommitteeStake uint64 `mapstructure:"committee-stake"`

	// GenesisAccounts maps bech32 addresses to their genesis object balance.
	GenesisAccounts map[string]uint64 `mapstructure:"accounts"`
}

// ProtocolConfig is consumed by the execution core. Identical protocol
// configuration on every validator is a precondition for deterministic
// validity checks.
type ProtocolConfig struct {
	Version uint32 `mapstructure:"version"`
	// MaxTransferAmount bounds a single native transfer. Zero means the full
	// range of the balance type.
	MaxTransferAmount uint64 `mapstructure:"max-transfer-amount"`
}

// CongestionConfig holds the per-object congestion control parameters. They
// affect scheduling only, never executor correctness.
type CongestionConfig struct {
	// TargetUtilization is the percentage of a checkpoint interval the
	// scheduler aims to fill with estimated execution time per object.
	TargetUtilization uint64 `mapstructure:"target-utilization"`
	// AllowedTxnCostOverageBurstLimit permits short bursts above the target
	// budget before deferral kicks in.
	AllowedTxnCostOverageBurstLimit time.Duration `mapstructure:"allowed-txn-cost-overage-burst-limit"`
	// RandomnessScalar perturbs deferral ordering between equal-cost estimates.
	RandomnessScalar uint64 `mapstructure:"randomness-scalar"`
	// MaxEstimate clamps any per-object cost estimate.
	MaxEstimate time.Duration `mapstructure:"max-estimate"`
	// StoredObservationsNumIncludedCheckpoints is how many checkpoint
	// intervals of observations are kept per object.
	StoredObservationsNumIncludedCheckpoints int `mapstructure:"stored-observations-num-included-checkpoints"`
	// StoredObservationsLimit bounds the per-object observation window.
	StoredObservationsLimit int `mapstructure:"stored-observations-limit"`
	// StakeWeightedMedianThreshold in basis points of total stake. Estimates
	// are used only once observations pass this threshold.
	StakeWeightedMedianThreshold uint64 `mapstructure:"stake-weighted-median-threshold"`
	// DefaultNoneForNewKeys makes objects without history estimate to zero
	// instead of DefaultEstimate.
	DefaultNoneForNewKeys bool `mapstructure:"default-none-for-new-keys"`
	// DefaultEstimate is used for objects without enough history.
	DefaultEstimate time.Duration `mapstructure:"default-estimate"`
}

// SchedulerConfig tunes the execution scheduler.
type SchedulerConfig struct {
	// Workers is the number of concurrent validation/classification workers.
	Workers int `mapstructure:"workers"`
	// CheckpointInterval is the budgeting window for congestion admission.
	CheckpointInterval time.Duration `mapstructure:"checkpoint-interval"`
	// QueueSize bounds the ordered-path inbox.
	QueueSize int `mapstructure:"queue-size"`
}

// LoggerConfig holds the logging configuration.
type LoggerConfig struct {
	Encoder string `mapstructure:"log-encoder"`
	Level   string `mapstructure:"log-level"`
}

// DefaultConfig returns the default configuration for an objectmesh validator.
func DefaultConfig() Config {
	return Config{
		BaseConfig: BaseConfig{
			ConfigFile:     defaultConfigFileName,
			CollectMetrics: false,
			MetricsPort:    1010,
			NetworkHRP:     "om",
			Stake:          1,
			CommitteeStake: 1,
		},
		Protocol: ProtocolConfig{
			Version: 1,
		},
		Congestion: DefaultCongestionConfig(),
		Scheduler: SchedulerConfig{
			Workers:            4,
			CheckpointInterval: 250 * time.Millisecond,
			QueueSize:          1024,
		},
		LOGGING: LoggerConfig{
			Encoder: "console",
			Level:   "info",
		},
	}
}

// DefaultCongestionConfig returns the default congestion control parameters.
func DefaultCongestionConfig() CongestionConfig {
	return CongestionConfig{
		TargetUtilization:                        50,
		AllowedTxnCostOverageBurstLimit:          500 * time.Millisecond,
		RandomnessScalar:                         20,
		MaxEstimate:                              1500 * time.Millisecond,
		StoredObservationsNumIncludedCheckpoints: 10,
		StoredObservationsLimit:                  180,
		StakeWeightedMedianThreshold:             3334,
		DefaultNoneForNewKeys:                    true,
		DefaultEstimate:                          time.Millisecond,
	}
}

// DefaultTestConfig returns the default config for tests.
func DefaultTestConfig() Config {
	conf := DefaultConfig()
	conf.NetworkHRP = "omtest"
	conf.Scheduler.CheckpointInterval = 10 * time.Millisecond
	return conf
}

// LoadConfig load the config file.
func LoadConfig(fileLocation string, vip *viper.Viper) error {
	if fileLocation == "" {
		fileLocation = defaultConfigFileName
	}

	vip.SetConfigFile(fileLocation)
	if err := vip.ReadInConfig(); err != nil {
		if fileLocation != defaultConfigFileName {
			return fmt.Errorf("failed to read config file %v: %w", fileLocation, err)
		}
		// the default config file is optional
		return nil
	}
	return nil
}

// Unmarshal the viper state into the config struct.
func Unmarshal(vip *viper.Viper, conf *Config) error {
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := vip.Unmarshal(conf, viper.DecodeHook(hook)); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}
