// Package metrics exports package drift as Prometheus gauges in the
// node_exporter textfile format, for hosts that scrape status runs.
package metrics

import (
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agentx-labs/atm/internal/branding"
	"github.com/agentx-labs/atm/internal/fault"
	"github.com/agentx-labs/atm/internal/platform"
)

// PackageState is one package's drift as seen by a status run.
type PackageState struct {
	Name    string
	Commit  string
	Drifted bool
	// Failed marks a package whose remote could not be checked.
	Failed bool
}

// Drift holds the gauges of one status run.
type Drift struct {
	registry *prometheus.Registry

	Installed prometheus.Gauge
	Drifted   *prometheus.GaugeVec
	Failed    *prometheus.GaugeVec
}

// NewDrift creates the gauges on a private registry.
func NewDrift() *Drift {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	ns := branding.CLIName()

	return &Drift{
		registry: reg,
		Installed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "packages_installed",
			Help:      "Number of packages in the registry.",
		}),
		Drifted: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "package_drift",
			Help:      "1 if the package's remote HEAD differs from its working copy.",
		}, []string{"package", "commit"}),
		Failed: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "package_check_failed",
			Help:      "1 if the package could not be checked.",
		}, []string{"package"}),
	}
}

// Record sets the gauges from states.
func (d *Drift) Record(states []PackageState) {
	d.Installed.Set(float64(len(states)))
	for _, s := range states {
		d.Drifted.WithLabelValues(s.Name, s.Commit).Set(boolValue(s.Drifted))
		d.Failed.WithLabelValues(s.Name).Set(boolValue(s.Failed))
	}
}

// WriteTextfile writes the gauges to path, replacing it atomically.
func (d *Drift) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), platform.DirPermNormal); err != nil {
		return &fault.IOError{Path: path, Err: err}
	}
	if err := prometheus.WriteToTextfile(path, d.registry); err != nil {
		return &fault.IOError{Path: path, Err: err}
	}
	return nil
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
