package densim

import (
	"sync"
	"time"
)

/*
Metrics counts what the execution loop did. A Backend and its Simulator share
one instance per run; a Sampler merges the per-shot instances into a total.
*/
type Metrics struct {
	mu sync.RWMutex

	Commands         map[CommandKind]int64
	ChannelsApplied  int64
	KrausTerms       int64
	ArityShortfalls  int64
	ConfusedOutcomes int64

	Runs           int64
	TotalRunTime   time.Duration
	AverageRunTime time.Duration
}

func NewMetrics() *Metrics {
	return &Metrics{
		Commands: make(map[CommandKind]int64, len(CommandKinds)),
	}
}

func (m *Metrics) recordCommand(kind CommandKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Commands[kind]++
}

func (m *Metrics) recordChannel(ch *KrausChannel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChannelsApplied++
	m.KrausTerms += int64(ch.Len())
}

func (m *Metrics) recordConfused() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ConfusedOutcomes++
}

func (m *Metrics) recordShortfalls(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArityShortfalls += int64(n)
}

func (m *Metrics) recordRun(startTime time.Time) {
	duration := time.Since(startTime)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Runs++
	m.TotalRunTime += duration
	m.AverageRunTime = m.TotalRunTime / time.Duration(m.Runs)
}

// Merge adds the counters of other into m.
func (m *Metrics) Merge(other *Metrics) {
	if other == nil || other == m {
		return
	}

	other.mu.RLock()
	defer other.mu.RUnlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	for kind, n := range other.Commands {
		m.Commands[kind] += n
	}
	m.ChannelsApplied += other.ChannelsApplied
	m.KrausTerms += other.KrausTerms
	m.ArityShortfalls += other.ArityShortfalls
	m.ConfusedOutcomes += other.ConfusedOutcomes
	m.Runs += other.Runs
	m.TotalRunTime += other.TotalRunTime

	if m.Runs > 0 {
		m.AverageRunTime = m.TotalRunTime / time.Duration(m.Runs)
	}
}

// CommandCount returns how many commands of kind were executed.
func (m *Metrics) CommandCount(kind CommandKind) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Commands[kind]
}

func (m *Metrics) ExportMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	commands := make(map[string]int64, len(m.Commands))
	for kind, n := range m.Commands {
		commands[kind.String()] = n
	}

	return map[string]interface{}{
		"commands":          commands,
		"channels_applied":  m.ChannelsApplied,
		"kraus_terms":       m.KrausTerms,
		"arity_shortfalls":  m.ArityShortfalls,
		"confused_outcomes": m.ConfusedOutcomes,
		"runs":              m.Runs,
		"avg_run_time":      m.AverageRunTime.Microseconds(),
	}
}
