package imagesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Ensure implementation satisfies the interface
var _ Client = (*HTTPClient)(nil)

// Client looks up a representative cover image URL for a place. An empty URL
// with a nil error means "no image found" and is a normal outcome.
type Client interface {
	SearchPlaceImage(ctx context.Context, name, city string) (string, error)
}

// HTTPClient queries an external image-search API. Successful lookups are
// cached for 24h since place imagery is effectively static.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *cache.Cache
	logger     *slog.Logger
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache.New(24*time.Hour, 1*time.Hour),
		logger:     logger,
	}
}

type searchResult struct {
	Results []struct {
		URL string `json:"url"`
	} `json:"results"`
}

// SearchPlaceImage returns the first image URL the provider yields for
// "<name> <city>", or "" when the provider has nothing.
func (c *HTTPClient) SearchPlaceImage(ctx context.Context, name, city string) (string, error) {
	ctx, span := otel.Tracer("ImageSearch").Start(ctx, "SearchPlaceImage")
	defer span.End()
	span.SetAttributes(attribute.String("place.name", name), attribute.String("place.city", city))

	cacheKey := strings.ToLower(strings.TrimSpace(name) + "|" + strings.TrimSpace(city))
	if cached, found := c.cache.Get(cacheKey); found {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached.(string), nil
	}

	q := url.Values{}
	q.Set("q", strings.TrimSpace(name+" "+city))
	q.Set("type", "image")
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to build image search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return "", fmt.Errorf("image search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("image search returned status %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "non-200 response")
		return "", err
	}

	var result searchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return "", fmt.Errorf("failed to decode image search response: %w", err)
	}

	if len(result.Results) == 0 {
		c.cache.Set(cacheKey, "", cache.DefaultExpiration)
		return "", nil
	}

	imageURL := result.Results[0].URL
	c.cache.Set(cacheKey, imageURL, cache.DefaultExpiration)
	span.SetStatus(codes.Ok, "image found")
	return imageURL, nil
}
