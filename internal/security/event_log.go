// Package security keeps a bounded in-memory record of suspicious requests.
package security

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventType classifies a security event.
type EventType string

const (
	EventSuspiciousInput  EventType = "suspicious_input"
	EventAuthFailure      EventType = "auth_failure"
	EventAdminAuthFailure EventType = "admin_auth_failure"
	EventUploadRejected   EventType = "upload_rejected"
	EventPanic            EventType = "panic"
)

// Severity ranks events for triage.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Event is a single recorded security occurrence.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Time      time.Time `json:"time"`
	Type      EventType `json:"type"`
	Severity  Severity  `json:"severity"`
	IP        string    `json:"ip"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	UserAgent string    `json:"userAgent,omitempty"`
	Detail    string    `json:"detail"`
}

// Stats summarises the events currently held in the log.
type Stats struct {
	Total    int               `json:"total"`
	Dropped  uint64            `json:"dropped"`
	Capacity int               `json:"capacity"`
	ByType   map[EventType]int `json:"byType"`
}

// Recorder accepts security events.
type Recorder interface {
	Record(evt Event)
	RecordRequest(r *http.Request, typ EventType, severity Severity, detail string)
}

// EventLog is a fixed-capacity ring buffer of events; once full, the oldest
// entry is overwritten. It is safe for concurrent use.
type EventLog struct {
	mu      sync.RWMutex
	events  []Event
	next    int
	full    bool
	dropped uint64
	logger  zerolog.Logger
	now     func() time.Time
}

// NewEventLog creates an event log holding at most capacity events.
func NewEventLog(capacity int, logger zerolog.Logger) *EventLog {
	if capacity < 1 {
		capacity = 1
	}
	return &EventLog{
		events: make([]Event, capacity),
		logger: logger.With().Str("component", "security-log").Logger(),
		now:    time.Now,
	}
}

// Record stores evt, filling in ID and Time when unset.
func (l *EventLog) Record(evt Event) {
	if evt.ID == uuid.Nil {
		evt.ID = uuid.New()
	}
	if evt.Time.IsZero() {
		evt.Time = l.now()
	}
	if evt.Severity == "" {
		evt.Severity = SeverityMedium
	}

	l.mu.Lock()
	if l.full {
		l.dropped++
	}
	l.events[l.next] = evt
	l.next = (l.next + 1) % len(l.events)
	if l.next == 0 {
		l.full = true
	}
	l.mu.Unlock()

	l.logger.Warn().
		Str("event_type", string(evt.Type)).
		Str("severity", string(evt.Severity)).
		Str("ip", evt.IP).
		Str("method", evt.Method).
		Str("path", evt.Path).
		Str("detail", evt.Detail).
		Msg("security event")
}

// RecordRequest records an event describing r.
func (l *EventLog) RecordRequest(r *http.Request, typ EventType, severity Severity, detail string) {
	l.Record(Event{
		Type:      typ,
		Severity:  severity,
		IP:        ClientIP(r),
		Method:    r.Method,
		Path:      r.URL.Path,
		UserAgent: r.UserAgent(),
		Detail:    detail,
	})
}

// Recent returns up to limit events, newest first. A limit <= 0 returns all.
func (l *EventLog) Recent(limit int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	size := l.sizeLocked()
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]Event, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (l.next - i + len(l.events)) % len(l.events)
		out = append(out, l.events[idx])
	}
	return out
}

// Stats returns counts for the events currently held.
func (l *EventLog) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	size := l.sizeLocked()
	byType := make(map[EventType]int)
	for i := 0; i < size; i++ {
		byType[l.events[i].Type]++
	}

	return Stats{
		Total:    size,
		Dropped:  l.dropped,
		Capacity: len(l.events),
		ByType:   byType,
	}
}

func (l *EventLog) sizeLocked() int {
	if l.full {
		return len(l.events)
	}
	return l.next
}

// ClientIP returns the host part of r.RemoteAddr. Forwarded headers are not
// read here; middleware.RealIP rewrites RemoteAddr for trusted proxies.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
