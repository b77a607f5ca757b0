// Package logging configures the shared application logger.
package logging

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	base *log.Logger
	once sync.Once
)

// Init configures the process-wide logger. Safe to call multiple times;
// only the first call takes effect.
func Init(level log.Level) {
	once.Do(func() {
		base = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Level:           level,
		})
	})
}

// For returns a logger scoped to one component, e.g. "whisper" or "bridge".
func For(component string) *log.Logger {
	if base == nil {
		Init(log.InfoLevel)
	}
	return base.With("component", component)
}
