// Package weather proxies current conditions from OpenWeatherMap so the API
// key stays on the server.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/baywoodland/woodland/internal/config"
	"github.com/baywoodland/woodland/internal/geo"
)

const (
	cacheKeyPrefix = "weather:v1:"
	iconURLFormat  = "https://openweathermap.org/img/wn/%s@2x.png"
	requestTimeout = 10 * time.Second
)

// DefaultLocation is the St. Margarets Bay area shown when the browser does
// not share its position.
var DefaultLocation = geo.Point{Lat: 44.694267, Lng: -63.911099}

var (
	// ErrDisabled is returned when no API key is configured.
	ErrDisabled = errors.New("weather lookup is disabled")
	// ErrUpstream wraps failures of the weather provider.
	ErrUpstream = errors.New("weather provider failure")
)

// HTTPClient is the subset of http.Client used here.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Conditions is the current weather at a location.
type Conditions struct {
	TempC       float64   `json:"temp_c"`
	TempRounded int       `json:"temp_rounded"`
	Icon        string    `json:"icon"`
	IconURL     string    `json:"icon_url"`
	Description string    `json:"description"`
	FetchedAt   time.Time `json:"fetched_at"`
}

type owmResponse struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Icon        string `json:"icon"`
		Description string `json:"description"`
	} `json:"weather"`
}

// Client fetches and caches current conditions.
type Client struct {
	http    HTTPClient
	baseURL string
	apiKey  string
	cache   *redis.Client
	ttl     time.Duration
	log     *slog.Logger
	now     func() time.Time
}

// NewClient builds a client. cache may be nil, which disables caching.
func NewClient(cfg config.WeatherConfig, cache *redis.Client, log *slog.Logger) *Client {
	return NewClientWithHTTP(&http.Client{Timeout: requestTimeout}, cfg, cache, log)
}

// NewClientWithHTTP builds a client with a custom HTTP client.
func NewClientWithHTTP(httpClient HTTPClient, cfg config.WeatherConfig, cache *redis.Client, log *slog.Logger) *Client {
	return &Client{
		http:    httpClient,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		cache:   cache,
		ttl:     cfg.CacheTTL,
		log:     log,
		now:     time.Now,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c.apiKey != "" }

// Current returns the conditions at p, from cache when possible.
func (c *Client) Current(ctx context.Context, p geo.Point) (Conditions, error) {
	if !c.Enabled() {
		return Conditions{}, ErrDisabled
	}

	key := cacheKey(p)
	if cond, ok := c.cached(ctx, key); ok {
		return cond, nil
	}

	cond, err := c.fetch(ctx, p)
	if err != nil {
		return Conditions{}, err
	}
	c.store(ctx, key, cond)
	return cond, nil
}

func (c *Client) fetch(ctx context.Context, p geo.Point) (Conditions, error) {
	reqURL, err := url.Parse(c.baseURL)
	if err != nil {
		return Conditions{}, fmt.Errorf("failed to parse base URL: %w", err)
	}
	query := reqURL.Query()
	query.Set("lat", strconv.FormatFloat(p.Lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(p.Lng, 'f', -1, 64))
	query.Set("appid", c.apiKey)
	query.Set("units", "metric")
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return Conditions{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Conditions{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Conditions{}, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, body)
	}

	var data owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Conditions{}, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if len(data.Weather) == 0 {
		return Conditions{}, fmt.Errorf("%w: response has no conditions", ErrUpstream)
	}

	w := data.Weather[0]
	return Conditions{
		TempC:       data.Main.Temp,
		TempRounded: int(math.Round(data.Main.Temp)),
		Icon:        w.Icon,
		IconURL:     fmt.Sprintf(iconURLFormat, w.Icon),
		Description: w.Description,
		FetchedAt:   c.now().UTC(),
	}, nil
}

func (c *Client) cached(ctx context.Context, key string) (Conditions, bool) {
	if c.cache == nil || c.ttl <= 0 {
		return Conditions{}, false
	}
	raw, err := c.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WarnContext(ctx, "weather cache read failed", "error", err)
		}
		return Conditions{}, false
	}
	var cond Conditions
	if err := json.Unmarshal(raw, &cond); err != nil {
		return Conditions{}, false
	}
	return cond, true
}

func (c *Client) store(ctx context.Context, key string, cond Conditions) {
	if c.cache == nil || c.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(cond)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "weather cache write failed", "error", err)
	}
}

// cacheKey rounds to two decimals (about 1 km) so nearby visitors share entries.
func cacheKey(p geo.Point) string {
	return fmt.Sprintf("%s%.2f:%.2f", cacheKeyPrefix, p.Lat, p.Lng)
}
