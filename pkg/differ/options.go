package differ

import "github.com/agentstation/regwatch/pkg/constants"

// Option is a functional option for configuring Differ
type Option func(*differ)

// WithWorkers sets how many goroutines Fields may use. Values below one
// mean sequential; values above MaxWorkers are capped.
func WithWorkers(n int) Option {
	return func(d *differ) {
		switch {
		case n < 1:
			d.workers = 1
		case n > constants.MaxWorkers:
			d.workers = constants.MaxWorkers
		default:
			d.workers = n
		}
	}
}

// WithPartitionSize sets the smallest number of keys handed to one worker.
func WithPartitionSize(n int) Option {
	return func(d *differ) {
		if n > 0 {
			d.partitionSize = n
		}
	}
}
