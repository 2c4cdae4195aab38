// Package config loads the reasoner's tunable constants — depth bounds,
// weight caps, queue capacities, worker policy, priority decay — from an
// optional YAML file, falling back to the nominal defaults named
// throughout the design when no file is supplied or a key is absent.
package config

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Tunables holds every constant the design calls out as "should be
// exposed" (open question iv): substitution/simplification depth bounds,
// the derived-term weight cap, queue capacities, worker count policy,
// priority decay, and the commit-enqueue timeout.
type Tunables struct {
	MaxSubstDepth         int     `yaml:"max_subst_depth"`
	MaxSimplifyDepth      int     `yaml:"max_simplify_depth"`
	MaxDerivedWeight      int     `yaml:"max_derived_weight"`
	CommitQueueCapacity   int     `yaml:"commit_queue_capacity"`
	TaskQueueCapacity     int     `yaml:"task_queue_capacity"`
	InferenceWorkers      int     `yaml:"inference_workers"`
	PriorityDecay         float64 `yaml:"priority_decay"`
	CommitEnqueueTimeoutMs int    `yaml:"commit_enqueue_timeout_ms"`
	KBCapacity            int     `yaml:"kb_capacity"`
}

// Default returns the nominal constants named in the design: 50/5/150,
// queue capacities of 10000, max(2, NumCPU()/2) workers, decay 0.95, a
// ~100ms commit-enqueue timeout, and a KB capacity of 10000.
func Default() Tunables {
	return Tunables{
		MaxSubstDepth:          50,
		MaxSimplifyDepth:       5,
		MaxDerivedWeight:       150,
		CommitQueueCapacity:    10000,
		TaskQueueCapacity:      10000,
		InferenceWorkers:       workerCount(),
		PriorityDecay:          0.95,
		CommitEnqueueTimeoutMs: 100,
		KBCapacity:             10000,
	}
}

func workerCount() int {
	n := runtime.NumCPU() / 2
	if n < 2 {
		return 2
	}
	return n
}

// Load reads Tunables from a YAML file at path, starting from Default and
// overriding only the keys present in the file. A missing file is not an
// error — callers that pass a path expect an override file to usually
// exist but should tolerate none being configured yet.
func Load(path string) (Tunables, error) {
	t := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, errors.Wrapf(err, "reading config file %q", path)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, errors.Wrapf(err, "parsing config file %q", path)
	}
	return t, nil
}
