package tracking

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/model"
)

func TestTrack_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/track/AA123456789BR", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{
			"code": "AA123456789BR",
			"status": "",
			"events": [
				{"date": "2026-01-01T10:00:00Z", "location": "São Paulo/SP", "description": "Objeto postado"},
				{"date": "2026-01-03T08:30:00Z", "location": "Rio de Janeiro/RJ", "description": "Objeto entregue"}
			]
		}`))
	}))
	defer server.Close()

	tracker := NewClient(Options{APIURL: server.URL + "/track/", APIToken: "tok"}, zerolog.Nop())

	info, err := tracker.Track(context.Background(), " aa123456789br ")
	require.NoError(t, err)
	assert.Equal(t, "AA123456789BR", info.Code)
	require.Len(t, info.Events, 2)
	assert.Equal(t, "Objeto entregue", info.Events[0].Description)
	assert.Equal(t, time.Date(2026, 1, 3, 8, 30, 0, 0, time.UTC), info.Events[0].Date)
	assert.Equal(t, "Objeto entregue", info.Status)
}

func TestTrack_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	tracker := NewClient(Options{APIURL: server.URL}, zerolog.Nop())

	_, err := tracker.Track(context.Background(), "AA123456789BR")
	assert.ErrorIs(t, err, model.ErrTrackingNotFound)
}

func TestTrack_InvalidCode(t *testing.T) {
	tracker := NewClient(Options{APIURL: "http://unused"}, zerolog.Nop())

	for _, code := range []string{"", "123", "AA12345678BR", "AA123456789B1"} {
		_, err := tracker.Track(context.Background(), code)
		assert.ErrorIs(t, err, model.ErrInvalidTrackingCode, code)
	}
}

func TestTrack_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	tracker := NewClient(Options{APIURL: server.URL}, zerolog.Nop())

	_, err := tracker.Track(context.Background(), "AA123456789BR")
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrTrackingNotFound)
	assert.Contains(t, err.Error(), "502")
}

func TestTrack_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	tracker := NewClient(Options{APIURL: server.URL, Timeout: 20 * time.Millisecond}, zerolog.Nop())

	_, err := tracker.Track(context.Background(), "AA123456789BR")
	assert.Error(t, err)
}
