package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// HTTPConfig configures a remote provider.
type HTTPConfig struct {
	Name    string
	BaseURL string
	Token   string
	Timeout time.Duration
	// CacheTTL keeps identical hook requests from reaching the remote
	// system more than once within the window. Zero disables caching.
	CacheTTL time.Duration
	// RequestDelay is the minimum spacing between uncached requests.
	RequestDelay time.Duration
}

// HTTPSource is a provider answering hooks over HTTP. Each hook is a POST to
// {BaseURL}/hooks/{hook} whose JSON body carries the filter and grouping and
// whose response is a JSON array of rows.
type HTTPSource struct {
	cfg        HTTPConfig
	httpClient *http.Client

	throttleMu  sync.Mutex
	lastRequest time.Time

	cache      map[string]*cacheEntry
	cacheMutex sync.Mutex
}

type cacheEntry struct {
	body       []byte
	expiration time.Time
}

type hookRequest struct {
	Filter  []KeyRecord `json:"filter"`
	GroupBy string      `json:"group_by,omitempty"`
	From    string      `json:"from,omitempty"`
	To      string      `json:"to,omitempty"`
}

// NewHTTPSource returns a remote provider.
func NewHTTPSource(cfg HTTPConfig) *HTTPSource {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "http:" + cfg.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &HTTPSource{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      make(map[string]*cacheEntry),
	}
}

// Name implements Provider.
func (c *HTTPSource) Name() string { return c.cfg.Name }

func (c *HTTPSource) getFromCache(key string) ([]byte, bool) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	entry, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiration) {
		delete(c.cache, key)
		return nil, false
	}
	log.Debug().Str("key", key).Msg("Cache hit")
	return entry.body, true
}

func (c *HTTPSource) addToCache(key string, body []byte) {
	if c.cfg.CacheTTL <= 0 {
		return
	}
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()
	c.cache[key] = &cacheEntry{body: body, expiration: time.Now().Add(c.cfg.CacheTTL)}
}

func (c *HTTPSource) throttle(ctx context.Context) error {
	c.throttleMu.Lock()
	defer c.throttleMu.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < c.cfg.RequestDelay {
		wait := c.cfg.RequestDelay - elapsed
		log.Debug().Dur("wait", wait).Str("provider", c.cfg.Name).Msg("Throttling provider request")
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.lastRequest = time.Now()
	return nil
}

func (c *HTTPSource) post(ctx context.Context, hook Hook, req hookRequest, out any) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	cacheKey := string(hook) + ":" + string(payload)
	if body, ok := c.getFromCache(cacheKey); ok {
		return json.Unmarshal(body, out)
	}

	if err := c.throttle(ctx); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/hooks/%s", c.cfg.BaseURL, hook)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	log.Debug().Str("url", url).Msg("Calling remote provider")
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("provider authentication failed (%d)", resp.StatusCode)
		case http.StatusNotFound:
			return fmt.Errorf("provider does not implement %s (404)", hook)
		default:
			return fmt.Errorf("provider returned status %d", resp.StatusCode)
		}
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	c.addToCache(cacheKey, raw)
	return nil
}

func (c *HTTPSource) ItemStats(ctx context.Context, acc []ItemStatsRow, filter []KeyRecord, groupBy string) ([]ItemStatsRow, error) {
	var rows []ItemStatsRow
	if err := c.post(ctx, HookItemStats, hookRequest{Filter: filter, GroupBy: groupBy}, &rows); err != nil {
		return nil, err
	}
	return append(acc, rows...), nil
}

func (c *HTTPSource) VisitorStats(ctx context.Context, acc []VisitorStatsRow, filter []KeyRecord, groupBy string) ([]VisitorStatsRow, error) {
	var rows []VisitorStatsRow
	if err := c.post(ctx, HookVisitorStats, hookRequest{Filter: filter, GroupBy: groupBy}, &rows); err != nil {
		return nil, err
	}
	return append(acc, rows...), nil
}

func (c *HTTPSource) VolunteerStats(ctx context.Context, acc []VolunteerStatsRow, filter []KeyRecord, groupBy string) ([]VolunteerStatsRow, error) {
	var rows []VolunteerStatsRow
	if err := c.post(ctx, HookVolunteerStats, hookRequest{Filter: filter, GroupBy: groupBy}, &rows); err != nil {
		return nil, err
	}
	return append(acc, rows...), nil
}

func (c *HTTPSource) Items(ctx context.Context, acc []ItemRecord, filter []KeyRecord) ([]ItemRecord, error) {
	var rows []ItemRecord
	if err := c.post(ctx, HookItems, hookRequest{Filter: filter}, &rows); err != nil {
		return nil, err
	}
	return append(acc, rows...), nil
}

func (c *HTTPSource) VisitorRegistrations(ctx context.Context, acc []VisitorRecord, filter []KeyRecord) ([]VisitorRecord, error) {
	var rows []VisitorRecord
	if err := c.post(ctx, HookVisitorRegistrations, hookRequest{Filter: filter}, &rows); err != nil {
		return nil, err
	}
	return append(acc, rows...), nil
}

func (c *HTTPSource) VolunteerRegistrations(ctx context.Context, acc []VolunteerRecord, filter []KeyRecord) ([]VolunteerRecord, error) {
	var rows []VolunteerRecord
	if err := c.post(ctx, HookVolunteers, hookRequest{Filter: filter}, &rows); err != nil {
		return nil, err
	}
	return append(acc, rows...), nil
}

func (c *HTTPSource) EventKeysInRange(ctx context.Context, acc []KeyRecord, from, to time.Time) ([]KeyRecord, error) {
	req := hookRequest{}
	if !from.IsZero() {
		req.From = from.Format("2006-01-02")
	}
	if !to.IsZero() {
		req.To = to.Format("2006-01-02")
	}
	var rows []KeyRecord
	if err := c.post(ctx, HookEventKeysInRange, req, &rows); err != nil {
		return nil, err
	}
	return append(acc, rows...), nil
}
