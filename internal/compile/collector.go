// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compile

import (
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/pdiddy/specmark/pkg/types"
)

// Collector accumulates warnings in the order they are reported and can
// forward each one to another sink as it arrives.
type Collector struct {
	// Forward, when set, also receives every warning.
	Forward types.Sink

	mu       sync.Mutex
	warnings []types.Warning
}

// Sink returns the collector as a types.Sink.
func (c *Collector) Sink() types.Sink {
	return func(w types.Warning) {
		c.mu.Lock()
		c.warnings = append(c.warnings, w)
		c.mu.Unlock()
		if c.Forward != nil {
			c.Forward(w)
		}
	}
}

// Warnings returns the collected warnings.
func (c *Collector) Warnings() []types.Warning {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.Warning(nil), c.warnings...)
}

// Len returns the number of collected warnings.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.warnings)
}

// Err folds the warnings into a single error, or nil when there are none.
func (c *Collector) Err() error {
	var result *multierror.Error
	for _, w := range c.Warnings() {
		result = multierror.Append(result, w)
	}
	return result.ErrorOrNil()
}
