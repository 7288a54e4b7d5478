package ocp

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
)

// EvaluateHorizon evaluates the tracking cost at each (times[i], states[i])
// pair, fanning the work out over independent clones of the cost. It is the
// evaluation pattern a multithreaded solver uses, and doubles as the
// executable statement of the clone contract: workers share only the
// read-only trajectory holder.
func EvaluateHorizon(
	cost *EndEffectorCost, times []float64, states [][]float64, workers int,
) ([]float64, error) {
	if len(times) != len(states) {
		return nil, errors.Errorf("got %d times but %d states", len(times), len(states))
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(times) {
		workers = len(times)
	}

	values := make([]float64, len(times))
	workerErrs := make([]error, workers)

	var wg sync.WaitGroup
	for worker := 0; worker < workers; worker++ {
		worker := worker
		clone := cost.Clone()
		wg.Add(1)
		goutils.PanicCapturingGo(func() {
			defer wg.Done()
			for i := worker; i < len(times); i += workers {
				value, err := clone.Value(times[i], states[i])
				if err != nil {
					workerErrs[worker] = errors.Wrapf(err, "evaluating step %d", i)
					return
				}
				values[i] = value
			}
		})
	}
	wg.Wait()

	if err := multierr.Combine(workerErrs...); err != nil {
		return nil, err
	}
	return values, nil
}
