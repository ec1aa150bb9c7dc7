// Package performance provides marker-based performance tracking for
// ShopMetrics operations with per-tenant aggregation.
package performance

import (
	"fmt"
	"sync"
	"time"
)

// Marker tracks one operation from start to completion.
type Marker struct {
	Operation string         `json:"operation"`
	TenantID  string         `json:"tenantId"`
	StartTime time.Time      `json:"startTime"`
	EndTime   time.Time      `json:"endTime"`
	Duration  time.Duration  `json:"duration"`
	Success   bool           `json:"success"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	tracker   *Tracker
	id        string
	mu        sync.Mutex
	completed bool
}

// Complete finalizes the marker and folds it into the tracker's aggregate
// stats. Safe to call more than once; only the first call records.
func (m *Marker) Complete() {
	m.mu.Lock()
	if m.completed {
		m.mu.Unlock()
		return
	}
	m.completed = true
	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.mu.Unlock()

	if m.tracker != nil {
		m.tracker.RecordCompletion(m)
	}
}

// SetSuccess records whether the operation succeeded.
func (m *Marker) SetSuccess(success bool) {
	m.mu.Lock()
	m.Success = success
	m.mu.Unlock()
}

// SetMetadata attaches a key/value pair to the marker.
func (m *Marker) SetMetadata(key string, value any) {
	m.mu.Lock()
	m.Metadata[key] = value
	m.mu.Unlock()
}

// OperationStats aggregates completed markers for one operation name.
type OperationStats struct {
	Operation     string        `json:"operation"`
	Count         int           `json:"count"`
	Failures      int           `json:"failures"`
	TotalDuration time.Duration `json:"totalDuration"`
	MaxDuration   time.Duration `json:"maxDuration"`
}

// Tracker manages performance markers and aggregates per-operation stats.
type Tracker struct {
	markers    map[string]*Marker
	stats      map[string]*OperationStats
	maxMarkers int
	mu         sync.RWMutex
	started    time.Time
}

// NewTracker creates a new performance tracker.
func NewTracker() *Tracker {
	return &Tracker{
		markers:    make(map[string]*Marker),
		stats:      make(map[string]*OperationStats),
		maxMarkers: 10000,
		started:    time.Now(),
	}
}

// StartOperation creates and tracks a new performance marker.
func (t *Tracker) StartOperation(operation, tenantID string) *Marker {
	marker := &Marker{
		Operation: operation,
		TenantID:  tenantID,
		StartTime: time.Now(),
		Metadata:  make(map[string]any),
		Success:   true,
		tracker:   t,
		id:        fmt.Sprintf("%s_%s_%d", tenantID, operation, time.Now().UnixNano()),
	}

	t.mu.Lock()
	if len(t.markers) >= t.maxMarkers {
		t.evictOldestLocked()
	}
	t.markers[marker.id] = marker
	t.mu.Unlock()

	return marker
}

// RecordCompletion folds a completed marker into the aggregate stats and
// drops it from the in-flight set.
func (t *Tracker) RecordCompletion(marker *Marker) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if marker.id != "" {
		delete(t.markers, marker.id)
	}

	stats, exists := t.stats[marker.Operation]
	if !exists {
		stats = &OperationStats{Operation: marker.Operation}
		t.stats[marker.Operation] = stats
	}
	stats.Count++
	if !marker.Success {
		stats.Failures++
	}
	stats.TotalDuration += marker.Duration
	if marker.Duration > stats.MaxDuration {
		stats.MaxDuration = marker.Duration
	}
}

// Stats returns a copy of the aggregated per-operation statistics.
func (t *Tracker) Stats() []OperationStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]OperationStats, 0, len(t.stats))
	for _, s := range t.stats {
		out = append(out, *s)
	}
	return out
}

// Uptime returns how long the tracker has been running.
func (t *Tracker) Uptime() time.Duration {
	return time.Since(t.started)
}

func (t *Tracker) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, m := range t.markers {
		if oldestID == "" || m.StartTime.Before(oldest) {
			oldestID = id
			oldest = m.StartTime
		}
	}
	if oldestID != "" {
		delete(t.markers, oldestID)
	}
}
