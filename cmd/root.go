// Package cmd is the entry point for the objectmesh validator CLI.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/objectmesh/go-objectmesh/config"
	"github.com/objectmesh/go-objectmesh/config/presets"
)

var (
	// Version is set at build time.
	Version string
	// Commit is set at build time.
	Commit string
)

// AddCommands adds flags shared by all commands.
func AddCommands(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP("preset", "p", "",
		fmt.Sprintf("preset overwrites default values of the config. options %+s", presets.Options()))

	conf := config.DefaultConfig()

	/** ======================== BaseConfig Flags ========================== **/
	cmd.PersistentFlags().StringP("config", "c", conf.ConfigFile,
		"load configuration from file")
	cmd.PersistentFlags().Bool("metrics", conf.CollectMetrics,
		"collect node metrics")
	cmd.PersistentFlags().Int("metrics-port", conf.MetricsPort,
		"metric server port")
	cmd.PersistentFlags().String("network-hrp", conf.NetworkHRP,
		"bech32 prefix for addresses on this network")
	cmd.PersistentFlags().Uint64("stake", conf.Stake,
		"this validator's stake")
	cmd.PersistentFlags().Uint64("committee-stake", conf.CommitteeStake,
		"total committee stake")
	cmd.PersistentFlags().StringToInt64P("accounts", "a", nil,
		"list of prefunded accounts")

	/** ======================== Scheduler Flags ========================== **/
	cmd.PersistentFlags().Int("workers", conf.Scheduler.Workers,
		"number of concurrent validation workers")
	cmd.PersistentFlags().Duration("checkpoint-interval", conf.Scheduler.CheckpointInterval,
		"congestion budgeting window")
	cmd.PersistentFlags().Int("queue-size", conf.Scheduler.QueueSize,
		"ordered path inbox size")

	/** ======================== Logging Flags ========================== **/
	cmd.PersistentFlags().String("log-encoder", conf.LOGGING.Encoder,
		"log encoder, console or json")
	cmd.PersistentFlags().String("log-level", conf.LOGGING.Level,
		"minimal log level")

	// bind viper at the end to have all flags available
	err := viper.BindPFlags(cmd.PersistentFlags())
	if err != nil {
		panic(err)
	}
}

// ParseConfig loads configuration from the file, preset, flags and defaults,
// in increasing priority.
func ParseConfig(cmd *cobra.Command) (config.Config, error) {
	conf := config.DefaultConfig()

	vip := viper.GetViper()
	if name, _ := cmd.Flags().GetString("preset"); name != "" {
		preset, err := presets.Get(name)
		if err != nil {
			return conf, err
		}
		conf = preset
	}
	if file, _ := cmd.Flags().GetString("config"); file != "" {
		if err := config.LoadConfig(file, vip); err != nil {
			return conf, err
		}
	}
	if err := config.Unmarshal(vip, &conf); err != nil {
		return conf, err
	}
	return conf, nil
}
