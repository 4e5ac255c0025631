// Package diagnostics reports process resource usage.
package diagnostics

import (
	"runtime"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/prometheus/procfs"
	"go.uber.org/zap"
)

// MemoryReporter logs the peak memory usage of the process.
type MemoryReporter struct {
	l    *zap.Logger
	peak func() (uint64, error)
}

// NewMemoryReporter creates a MemoryReporter reading the peak resident set size from procfs.
func NewMemoryReporter(l *zap.Logger) *MemoryReporter {
	return &MemoryReporter{l: l, peak: PeakRSS}
}

// Report logs the peak memory usage. Failures are logged and never returned.
func (r *MemoryReporter) Report() {
	peak, err := r.peak()
	if err != nil {
		r.l.Warn("Failed to read memory usage", zap.Error(err))
		return
	}

	r.l.Info("Memory usage",
		zap.String("peak", humanize.IBytes(peak)),
		zap.Uint64("peak_kb", peak/1024),
		zap.Uint64("peak_mb", peak/1024/1024),
	)
}

// PeakRSS returns the peak resident set size in bytes.
// Without procfs the memory obtained by the Go runtime is returned instead.
func PeakRSS() (uint64, error) {
	proc, err := procfs.Self()
	if err != nil {
		return runtimeSys(), nil
	}

	status, err := proc.NewStatus()
	if err != nil {
		return 0, errors.Wrap(err, "failed to read process status")
	}

	return status.VmHWM, nil
}

func runtimeSys() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	return stats.Sys
}
