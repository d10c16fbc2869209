// Package observability bootstraps the optional New Relic agent.
package observability

import (
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/logstream-io/logstream/internal/config"
)

// NewApplication creates a New Relic application from config. Returns
// nil, nil when observability is disabled; callers treat a nil app as
// "tracing off".
func NewApplication(cfg *config.ObservabilityConfig) (*newrelic.Application, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	if cfg.LicenseKey == "" {
		return nil, fmt.Errorf("observability enabled but no license key configured")
	}
	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.ServiceName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(true),
		func(c *newrelic.Config) {
			c.Labels = map[string]string{"env": cfg.Environment}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("new relic application: %w", err)
	}
	return app, nil
}
