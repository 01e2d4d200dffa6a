package engine

import (
	"sync"
	"time"

	movingaverage "github.com/RobinUS2/golang-moving-average"
	"go.uber.org/zap"
)

const reportPeriod = 30 * time.Second

// Stats is a snapshot of the engine counters.
type Stats struct {
	Ticks    int
	Pushes   int
	Pulls    int
	Failures int
	// Moving average of tick duration [ms]
	AvgTickMs float64
}

// Monitor keeps Engine stats and reports them periodically.
// Owned by the engine; there is no package-level instance.
type Monitor struct {
	sync.Mutex
	logger  *zap.Logger
	tickDur *movingaverage.MovingAverage
	ticks   int
	pushes  int
	pulls   int
	fails   int
	stopCh  chan struct{}
}

// TickDone accounts a finished tick.
func (m *Monitor) TickDone(report TickReport) {
	m.Lock()
	defer m.Unlock()

	m.ticks++
	if report.Pushed {
		m.pushes++
	}
	if report.Pulled {
		m.pulls++
	}
	if report.Failed() {
		m.fails++
	}
	m.tickDur.Add(float64(report.Duration/time.Microsecond) / 1000.0)
}

// Stats returns a snapshot of the counters.
func (m *Monitor) Stats() Stats {
	m.Lock()
	defer m.Unlock()

	return Stats{
		Ticks:     m.ticks,
		Pushes:    m.pushes,
		Pulls:     m.pulls,
		Failures:  m.fails,
		AvgTickMs: m.tickDur.Avg(),
	}
}

// Start starts the Monitor worker.
func (m *Monitor) Start() {
	if m.stopCh != nil {
		return
	}
	m.stopCh = make(chan struct{})

	go m.worker()
}

// Stop stops the Monitor worker.
func (m *Monitor) Stop() {
	if m.stopCh == nil {
		return
	}

	close(m.stopCh)
}

// worker does the actual job.
func (m *Monitor) worker() {
	ticker := time.NewTicker(reportPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			stats := m.Stats()
			m.logger.Info("engine stats",
				zap.Int("ticks", stats.Ticks),
				zap.Int("pushes", stats.Pushes),
				zap.Int("pulls", stats.Pulls),
				zap.Int("failures", stats.Failures),
				zap.Float64("avg_tick_ms", stats.AvgTickMs),
			)
		}
	}
}

// newMonitor creates a new Monitor object.
func newMonitor(logger *zap.Logger) *Monitor {
	return &Monitor{
		logger:  logger,
		tickDur: movingaverage.New(20),
	}
}
