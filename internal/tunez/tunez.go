// package tunez implements the local-network Tunez catalog provider.
//
// The wire protocol is HTTP GET with the request encoded in the query string:
// a typed message name immediately followed by a URI-escaped JSON payload,
// e.g. "FetchTrack{\"UUID\":123,\"Offset\":0}". Catalog fetches return a full
// snapshot which is cached to a named local file; no incremental protocol
// exists.
package tunez

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"golang.org/x/time/rate"
)

// Message names understood by a Tunez server.
const (
	MessageFetchCatalog   = "FetchCatalog"
	MessageFetchTrack     = "FetchTrack"
	MessageFetchAlbumArt  = "FetchAlbumArt"
	MessageFetchArtistArt = "FetchArtistArt"
)

// FetchTrackMessage requests track audio starting at a byte offset.
type FetchTrackMessage struct {
	UUID   int   `json:"UUID"`
	Offset int64 `json:"Offset"`
}

// FetchAlbumArtMessage requests album artwork.
type FetchAlbumArtMessage struct {
	AlbumArtist string `json:"AlbumArtist"`
	Album       string `json:"Album"`
}

// FetchArtistArtMessage requests artist artwork.
type FetchArtistArtMessage struct {
	AlbumArtist string `json:"AlbumArtist"`
}

// CatalogTrack is one entry of a full catalog snapshot.
type CatalogTrack struct {
	UUID        int    `json:"UUID"`
	Name        string `json:"Name"`
	TrackArtist string `json:"TrackArtist"`
	AlbumArtist string `json:"AlbumArtist"`
	Album       string `json:"Album"`
	Duration    int    `json:"Duration"`
	Disc        int    `json:"Disc"`
	Number      int    `json:"Number"`
	AlbumArt    string `json:"AlbumArt,omitempty"`
}

// EncodeMessage builds the request URL for a typed message against base.
func EncodeMessage(base *url.URL, name string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s message: %w", name, err)
	}
	return base.String() + "?" + url.PathEscape(name+string(data)), nil
}

// ServerDetails identifies a Tunez server on the local network.
type ServerDetails struct {
	Hostname string
	Port     int
}

// Server is a long-lived handle to one Tunez server.
type Server struct {
	base       *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewServer creates a server handle for the given details.
func NewServer(details ServerDetails, transport http.RoundTripper, requestsPerSecond float64) *Server {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	base := &url.URL{Scheme: "http", Host: fmt.Sprintf("%s:%d", details.Hostname, details.Port)}
	return &Server{
		base:       base,
		httpClient: &http.Client{Transport: transport},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// NewServerForURL creates a server handle straight from a base address.
func NewServerForURL(base *url.URL, transport http.RoundTripper, requestsPerSecond float64) *Server {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	return &Server{
		base:       base,
		httpClient: &http.Client{Transport: transport},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// BaseAddress returns the server's base URL.
func (s *Server) BaseAddress() *url.URL { return s.base }

// FetchCatalog requests a full catalog snapshot, caching the raw payload to
// cachePath. When the server is unreachable the previous snapshot, if any, is
// served from the cache.
func (s *Server) FetchCatalog(ctx context.Context, cachePath string) ([]CatalogTrack, error) {
	body, err := s.fetch(ctx, MessageFetchCatalog, struct{}{})
	if err != nil {
		if cached, cacheErr := os.ReadFile(cachePath); cacheErr == nil {
			return decodeCatalog(cached)
		}
		return nil, err
	}

	if cachePath != "" {
		if mkErr := os.MkdirAll(filepath.Dir(cachePath), 0755); mkErr == nil {
			// A stale cache is worse than none; ignore write failures.
			_ = os.WriteFile(cachePath, body, 0644)
		}
	}

	return decodeCatalog(body)
}

// fetch performs one rate-limited message round trip.
func (s *Server) fetch(ctx context.Context, message string, payload any) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL, err := EncodeMessage(s.base, message, payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tunez server error: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

func decodeCatalog(data []byte) ([]CatalogTrack, error) {
	var catalog []CatalogTrack
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return catalog, nil
}
