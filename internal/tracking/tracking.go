// Package tracking queries the carrier API for shipment events.
package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"storefront/internal/model"
	"storefront/internal/validation"
)

// Tracker looks up shipments by tracking code.
type Tracker interface {
	Track(ctx context.Context, code string) (*model.TrackingInfo, error)
}

// Options configures NewClient.
type Options struct {
	APIURL   string
	APIToken string
	Timeout  time.Duration
}

type client struct {
	http   *http.Client
	opts   Options
	logger zerolog.Logger
}

// NewClient returns a Tracker for the carrier REST API.
func NewClient(opts Options, logger zerolog.Logger) Tracker {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &client{
		http:   &http.Client{Timeout: opts.Timeout},
		opts:   opts,
		logger: logger.With().Str("component", "tracking-client").Logger(),
	}
}

type carrierEvent struct {
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
}

type carrierResponse struct {
	Code   string         `json:"code"`
	Status string         `json:"status"`
	Events []carrierEvent `json:"events"`
}

func (c *client) Track(ctx context.Context, code string) (*model.TrackingInfo, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !validation.ValidTrackingCode(code) {
		return nil, model.ErrInvalidTrackingCode
	}

	endpoint := strings.TrimRight(c.opts.APIURL, "/") + "/" + url.PathEscape(code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tracking request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.opts.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("code", code).Msg("tracking request failed")
		return nil, fmt.Errorf("failed to call tracking API: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, model.ErrTrackingNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("tracking API returned status %d", resp.StatusCode)
	}

	var body carrierResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode tracking response: %w", err)
	}

	info := &model.TrackingInfo{
		Code:   code,
		Status: body.Status,
		Events: make([]model.TrackingEvent, 0, len(body.Events)),
	}
	for _, evt := range body.Events {
		info.Events = append(info.Events, model.TrackingEvent{
			Date:        evt.Date,
			Location:    evt.Location,
			Description: evt.Description,
		})
	}
	// Newest scan first.
	sort.SliceStable(info.Events, func(i, j int) bool {
		return info.Events[i].Date.After(info.Events[j].Date)
	})

	if info.Status == "" && len(info.Events) > 0 {
		info.Status = info.Events[0].Description
	}

	return info, nil
}
