// Package presets holds named configuration presets that overwrite defaults.
package presets

import (
	"fmt"
	"sort"
	"time"

	"github.com/objectmesh/go-objectmesh/config"
)

var presets = map[string]config.Config{}

func register(name string, conf config.Config) {
	if _, exists := presets[name]; exists {
		panic(fmt.Sprintf("preset with name %s already exists", name))
	}
	presets[name] = conf
}

// Get returns a preset by name.
func Get(name string) (config.Config, error) {
	conf, exists := presets[name]
	if !exists {
		return config.Config{}, fmt.Errorf("preset %s is not registered. options %+s", name, Options())
	}
	return conf, nil
}

// Options returns registered preset names.
func Options() []string {
	options := make([]string, 0, len(presets))
	for name := range presets {
		options = append(options, name)
	}
	sort.Strings(options)
	return options
}

func init() {
	register("devnet", devnet())
	register("stress", stress())
}

func devnet() config.Config {
	conf := config.DefaultConfig()
	conf.NetworkHRP = "omtest"
	conf.Scheduler.Workers = 2
	conf.Scheduler.CheckpointInterval = 100 * time.Millisecond
	conf.Congestion.DefaultNoneForNewKeys = true
	return conf
}

func stress() config.Config {
	conf := config.DefaultConfig()
	conf.Scheduler.Workers = 16
	conf.Scheduler.QueueSize = 1 << 16
	conf.Congestion.StoredObservationsLimit = 360
	conf.Congestion.AllowedTxnCostOverageBurstLimit = 100 * time.Millisecond
	return conf
}
