package metrics

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// Outcome represents how a single input record was handled
type Outcome string

const (
	// Applied means the ledger accepted the transaction (including defined no-ops)
	Applied Outcome = "APPLIED"
	// Rejected means the ledger refused the transaction and left the account unchanged
	Rejected Outcome = "REJECTED"
	// Skipped means the record could not be decoded and never reached the ledger
	Skipped Outcome = "SKIPPED"
)

// maxSamples bounds the latency samples kept per run
const maxSamples = 4096

// RunResult stores the metrics for one processed input source
type RunResult struct {
	RunID     string                 `json:"runId"`
	Source    string                 `json:"source"`
	StartTime time.Time              `json:"startTime"`
	EndTime   time.Time              `json:"endTime"`
	Duration  time.Duration          `json:"duration"`
	Summary   map[string]interface{} `json:"summary"`

	counts        map[Outcome]int64
	byType        map[string]int64
	rejectedTypes map[string]int64
	totalApply    time.Duration
	measured      int64
	samples       []int64
	rng           *rand.Rand
}

// Collector collects processing metrics for ledger runs
type Collector struct {
	mu         sync.Mutex
	currentRun *RunResult
	runs       map[string]*RunResult
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		runs: make(map[string]*RunResult),
	}
}

// StartRun begins a new run and sets it as the current run
func (c *Collector) StartRun(runID, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentRun = &RunResult{
		RunID:         runID,
		Source:        source,
		StartTime:     time.Now(),
		Summary:       make(map[string]interface{}),
		counts:        make(map[Outcome]int64),
		byType:        make(map[string]int64),
		rejectedTypes: make(map[string]int64),
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	c.runs[runID] = c.currentRun
}

// MeasureOperation times one ledger submission of the given transaction type
// and records it as Applied or Rejected. The operation's error is returned unchanged.
func (c *Collector) MeasureOperation(txType string, operation func() error) error {
	if operation == nil {
		return fmt.Errorf("operation function cannot be nil")
	}

	c.mu.Lock()
	if c.currentRun == nil {
		c.mu.Unlock()
		return fmt.Errorf("no run is currently active")
	}
	c.mu.Unlock()

	start := time.Now()
	err := operation()
	elapsed := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()

	run := c.currentRun
	if run == nil {
		return err
	}

	run.byType[txType]++
	if err != nil {
		run.counts[Rejected]++
		run.rejectedTypes[txType]++
	} else {
		run.counts[Applied]++
	}
	run.totalApply += elapsed
	run.measured++
	run.sample(elapsed.Nanoseconds())

	return err
}

// RecordSkipped counts a record that could not be decoded
func (c *Collector) RecordSkipped() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentRun == nil {
		return fmt.Errorf("no run is currently active")
	}

	c.currentRun.counts[Skipped]++
	return nil
}

// AddCustomMetric adds a custom metric to the current run
func (c *Collector) AddCustomMetric(name string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentRun == nil {
		return fmt.Errorf("no run is currently active")
	}

	c.currentRun.Summary[name] = value
	return nil
}

// EndRun completes the run, calculates summary metrics, and returns the result
func (c *Collector) EndRun(runID string) *RunResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	run, exists := c.runs[runID]
	if !exists || run != c.currentRun {
		return nil
	}

	run.EndTime = time.Now()
	run.Duration = run.EndTime.Sub(run.StartTime)

	applied := run.counts[Applied]
	rejected := run.counts[Rejected]
	skipped := run.counts[Skipped]
	records := applied + rejected + skipped

	run.Summary["recordCount"] = records
	run.Summary["appliedCount"] = applied
	run.Summary["rejectedCount"] = rejected
	run.Summary["skippedCount"] = skipped
	run.Summary["byType"] = copyCounts(run.byType)
	run.Summary["rejectedByType"] = copyCounts(run.rejectedTypes)

	if run.measured > 0 {
		run.Summary["totalApplyNs"] = run.totalApply.Nanoseconds()
		run.Summary["avgApplyNs"] = run.totalApply.Nanoseconds() / run.measured
	}
	if seconds := run.Duration.Seconds(); seconds > 0 {
		run.Summary["throughput"] = float64(records) / seconds
	}

	// Calculate percentiles if we have enough data
	if n := len(run.samples); n >= 10 {
		durations := make([]int64, n)
		copy(durations, run.samples)
		sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

		run.Summary["p50"] = durations[n*50/100]
		run.Summary["p90"] = durations[n*90/100]
		run.Summary["p99"] = durations[n*99/100]
	}

	c.currentRun = nil

	return run
}

// GetRunResult retrieves a run result by id
func (c *Collector) GetRunResult(runID string) *RunResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.runs[runID]
}

// ResetCollector clears all run data
func (c *Collector) ResetCollector() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentRun = nil
	c.runs = make(map[string]*RunResult)
}

// Count returns how many records of the run ended with the given outcome
func (r *RunResult) Count(outcome Outcome) int64 {
	return r.counts[outcome]
}

// sample keeps a uniform reservoir of at most maxSamples latencies
func (r *RunResult) sample(ns int64) {
	if len(r.samples) < maxSamples {
		r.samples = append(r.samples, ns)
		return
	}
	if i := r.rng.Int63n(r.measured); i < maxSamples {
		r.samples[i] = ns
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
