package event

import (
	"sync"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/rs/zerolog/log"

	"github.com/oksi-iot/oksi-engine/internal/metrics"
)

// Writer wraps the async WriteAPI and tracks the last write error so
// /healthz and /readyz can report ingestion health.
type Writer struct {
	api     api.WriteAPI
	mu      sync.RWMutex
	lastErr time.Time
	counts  map[string]int64
}

// NewWriter starts the listener that drains Influx's async error channel.
func NewWriter(w api.WriteAPI) *Writer {
	ww := &Writer{
		api:     w,
		lastErr: time.Now().Add(-24 * time.Hour),
		counts:  make(map[string]int64),
	}
	go func() {
		for err := range w.Errors() {
			if err != nil {
				ww.mu.Lock()
				ww.lastErr = time.Now()
				ww.mu.Unlock()
				log.Error().Err(err).Msg("influx write error")
			}
		}
	}()
	return ww
}

// Record converts the event to a point and queues it for async write.
func (w *Writer) Record(evt CommonEvent) {
	w.api.WritePoint(EventToPoint(evt))
	w.markIngest(evt.EventType)
	metrics.EventsRecordedTotal.WithLabelValues(evt.EventType).Inc()
}

// LastErrorAge reports how long it has been since the last write error.
func (w *Writer) LastErrorAge() time.Duration {
	if w == nil {
		return 99999 * time.Hour
	}
	w.mu.RLock()
	t := w.lastErr
	w.mu.RUnlock()
	return time.Since(t)
}

func (w *Writer) markIngest(eventType string) {
	w.mu.Lock()
	w.counts[eventType]++
	w.mu.Unlock()
}

// Count reads the per-type ingest counter. Used in tests and debugging.
func (w *Writer) Count(eventType string) int64 {
	if w == nil {
		return 0
	}
	w.mu.RLock()
	c := w.counts[eventType]
	w.mu.RUnlock()
	return c
}
