// Package node glues the validator components into a runnable process.
package node

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/objectmesh/go-objectmesh/authority"
	"github.com/objectmesh/go-objectmesh/cmd"
	"github.com/objectmesh/go-objectmesh/common/types"
	"github.com/objectmesh/go-objectmesh/config"
	"github.com/objectmesh/go-objectmesh/log"
	"github.com/objectmesh/go-objectmesh/metrics"
)

// GetCommand returns the root cobra command for the node.
func GetCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "objectmesh",
		Short: "object-based validator node",
		RunE: func(c *cobra.Command, args []string) error {
			conf, err := cmd.ParseConfig(c)
			if err != nil {
				return fmt.Errorf("parse config: %w", err)
			}
			return run(conf)
		},
	}
	cmd.AddCommands(c)
	return c
}

func run(conf config.Config) error {
	lvl, err := zap.ParseAtomicLevel(conf.LOGGING.Level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	var encoder zapcore.Encoder
	switch conf.LOGGING.Encoder {
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}
	logger := log.NewWithLevel("node", lvl, encoder)
	log.SetupGlobal(logger)

	types.SetNetworkHRP(conf.NetworkHRP)

	app, err := authority.New(conf, authority.WithLogger(logger.WithName("authority")))
	if err != nil {
		return fmt.Errorf("create authority: %w", err)
	}
	app.Start()
	defer app.Stop()

	if conf.CollectMetrics {
		metrics.StartCollectingMetrics(conf.MetricsPort)
	}

	logger.With().Info("node is ready",
		log.String("version", cmd.Version),
		log.String("commit", cmd.Commit),
	)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	logger.With().Info("shutting down", log.Stringer("signal", sig))
	return nil
}
