package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	sessionsMountedTotal   atomic.Uint64
	sessionsRestoredTotal  atomic.Uint64
	sessionsSuspendedTotal atomic.Uint64
	handoffErrorsTotal     atomic.Uint64

	stepsAdvancedTotal atomic.Uint64
	stepsRejectedTotal atomic.Uint64

	extractionCompletedTotal atomic.Uint64
	extractionFailedTotal    atomic.Uint64
	extractionStaleTotal     atomic.Uint64

	promptsBuiltTotal      atomic.Uint64
	submissionsTotal       atomic.Uint64
	submissionsFailedTotal atomic.Uint64

	extractionDuration = newHistogram([]float64{10, 50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000})
)

func IncSessionMounted()   { sessionsMountedTotal.Add(1) }
func IncSessionRestored()  { sessionsRestoredTotal.Add(1) }
func IncSessionSuspended() { sessionsSuspendedTotal.Add(1) }
func IncHandoffError()     { handoffErrorsTotal.Add(1) }

func IncStepAdvanced() { stepsAdvancedTotal.Add(1) }
func IncStepRejected() { stepsRejectedTotal.Add(1) }

func IncExtractionCompleted() { extractionCompletedTotal.Add(1) }
func IncExtractionFailed()    { extractionFailedTotal.Add(1) }

// IncExtractionStale counts extraction results dropped because the file changed.
func IncExtractionStale() { extractionStaleTotal.Add(1) }

func IncPromptBuilt()      { promptsBuiltTotal.Add(1) }
func IncSubmission()       { submissionsTotal.Add(1) }
func IncSubmissionFailed() { submissionsFailedTotal.Add(1) }

// ObserveExtractionDurationMs records an extraction duration in milliseconds.
func ObserveExtractionDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	extractionDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "wizard_sessions_mounted_total", "Wizard sessions mounted", sessionsMountedTotal.Load())
	writeCounter(&buf, "wizard_sessions_restored_total", "Wizard sessions restored from a handoff snapshot", sessionsRestoredTotal.Load())
	writeCounter(&buf, "wizard_sessions_suspended_total", "Wizard sessions suspended into the handoff slot", sessionsSuspendedTotal.Load())
	writeCounter(&buf, "wizard_handoff_errors_total", "Handoff store read or write failures", handoffErrorsTotal.Load())
	writeCounter(&buf, "wizard_steps_advanced_total", "Step transitions that passed validation", stepsAdvancedTotal.Load())
	writeCounter(&buf, "wizard_steps_rejected_total", "Step transitions blocked by validation", stepsRejectedTotal.Load())
	writeCounter(&buf, "extraction_completed_total", "Resume text extractions completed", extractionCompletedTotal.Load())
	writeCounter(&buf, "extraction_failed_total", "Resume text extractions failed", extractionFailedTotal.Load())
	writeCounter(&buf, "extraction_stale_total", "Extraction results discarded for a replaced file", extractionStaleTotal.Load())
	writeCounter(&buf, "prompts_built_total", "Generation prompts assembled", promptsBuiltTotal.Load())
	writeCounter(&buf, "submissions_total", "LaTeX submissions stored", submissionsTotal.Load())
	writeCounter(&buf, "submissions_failed_total", "LaTeX submissions that failed", submissionsFailedTotal.Load())
	writeHistogram(&buf, "extraction_duration_ms", "Extraction duration in milliseconds", extractionDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

// writeHistogram emits cumulative buckets; counts hold per-bucket hits.
func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMillis returns the milliseconds elapsed since start.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
