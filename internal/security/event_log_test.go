package security

import (
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEventLog_RecentNewestFirst(t *testing.T) {
	log := NewEventLog(5, zerolog.Nop())

	for i := 0; i < 3; i++ {
		log.Record(Event{Type: EventSuspiciousInput, Detail: fmt.Sprintf("e%d", i)})
	}

	events := log.Recent(0)
	require.Len(t, events, 3)
	assert.Equal(t, "e2", events[0].Detail)
	assert.Equal(t, "e0", events[2].Detail)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Time.IsZero())
	assert.Equal(t, SeverityMedium, events[0].Severity)
}

func TestEventLog_OverwritesOldest(t *testing.T) {
	log := NewEventLog(3, zerolog.Nop())

	for i := 0; i < 5; i++ {
		log.Record(Event{Type: EventAuthFailure, Detail: fmt.Sprintf("e%d", i)})
	}

	events := log.Recent(10)
	require.Len(t, events, 3)
	assert.Equal(t, []string{"e4", "e3", "e2"}, []string{events[0].Detail, events[1].Detail, events[2].Detail})

	stats := log.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, uint64(2), stats.Dropped)
	assert.Equal(t, 3, stats.Capacity)
	assert.Equal(t, 3, stats.ByType[EventAuthFailure])
}

func TestEventLog_RecentLimit(t *testing.T) {
	log := NewEventLog(10, zerolog.Nop())
	for i := 0; i < 4; i++ {
		log.Record(Event{Type: EventPanic})
	}

	assert.Len(t, log.Recent(2), 2)
	assert.Empty(t, NewEventLog(0, zerolog.Nop()).Recent(5))
}

func TestEventLog_RecordRequest(t *testing.T) {
	log := NewEventLog(2, zerolog.Nop())
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	log.now = func() time.Time { return fixed }

	req := httptest.NewRequest("POST", "/api/checkout", nil)
	req.RemoteAddr = "203.0.113.9:51000"
	req.Header.Set("User-Agent", "curl/8")

	log.RecordRequest(req, EventSuspiciousInput, SeverityHigh, "script_block")

	events := log.Recent(1)
	require.Len(t, events, 1)
	assert.Equal(t, "203.0.113.9", events[0].IP)
	assert.Equal(t, "POST", events[0].Method)
	assert.Equal(t, "/api/checkout", events[0].Path)
	assert.Equal(t, "curl/8", events[0].UserAgent)
	assert.Equal(t, fixed, events[0].Time)
	assert.Equal(t, SeverityHigh, events[0].Severity)
}

func TestEventLog_ConcurrentRecord(t *testing.T) {
	log := NewEventLog(50, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				log.Record(Event{Type: EventSuspiciousInput})
				_ = log.Recent(5)
			}
		}()
	}
	wg.Wait()

	stats := log.Stats()
	assert.Equal(t, 50, stats.Total)
	assert.Equal(t, uint64(150), stats.Dropped)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", ClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	req.Header.Set("X-Forwarded-For", "198.51.100.8")
	assert.Equal(t, "192.0.2.1", ClientIP(req), "forwarded headers are ignored")

	req.RemoteAddr = "garbage"
	assert.Equal(t, "garbage", ClientIP(req))
}
