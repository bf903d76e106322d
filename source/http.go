package source

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"slippymap/tile"
	"slippymap/tilecache"
)

const defaultUserAgent = "slippymap/1.0"

// HTTPOptions configures an HTTP tile source
type HTTPOptions struct {
	// URLTemplate with {s}, {z}, {x}, {y} placeholders,
	// e.g. "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	URLTemplate string

	// Subdomains rotated into {s}; may be empty when the template has no
	// {s} placeholder
	Subdomains []string

	UserAgent string
	Timeout   time.Duration

	// Cache, when set, is consulted before fetching and fed on success
	Cache *tilecache.Cache

	// DiskCache, when set, backs Cache as a second level that survives
	// restarts
	DiskCache *tilecache.DiskCache

	// MaxConcurrent bounds in-flight requests (default 6, like a browser
	// per-host connection pool)
	MaxConcurrent int

	// Cooldown holds off requests after the server rate-limits; nil
	// installs the default ladder
	Cooldown *Cooldown
}

// HTTPSource fetches tiles from an XYZ tile server
type HTTPSource struct {
	opts       HTTPOptions
	httpClient *http.Client
	sem        chan struct{}
	subdomain  atomic.Uint32
}

// NewHTTPSource creates a tile source for an XYZ URL template
func NewHTTPSource(opts HTTPOptions) (*HTTPSource, error) {
	if opts.URLTemplate == "" {
		return nil, fmt.Errorf("source: URL template is required")
	}
	if strings.Contains(opts.URLTemplate, "{s}") && len(opts.Subdomains) == 0 {
		return nil, fmt.Errorf("source: template %q uses {s} but no subdomains given", opts.URLTemplate)
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 6
	}
	if opts.Cooldown == nil {
		opts.Cooldown = NewCooldown()
	}

	// respect system proxy settings
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}

	return &HTTPSource{
		opts: opts,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		sem: make(chan struct{}, opts.MaxConcurrent),
	}, nil
}

// URL returns the request URL for a coordinate, rotating subdomains
func (s *HTTPSource) URL(coord tile.Coord) string {
	url := s.opts.URLTemplate
	if len(s.opts.Subdomains) > 0 {
		idx := int(s.subdomain.Add(1)) % len(s.opts.Subdomains)
		url = strings.ReplaceAll(url, "{s}", s.opts.Subdomains[idx])
	}
	url = strings.ReplaceAll(url, "{z}", strconv.Itoa(coord.Z))
	url = strings.ReplaceAll(url, "{x}", strconv.Itoa(coord.X))
	url = strings.ReplaceAll(url, "{y}", strconv.Itoa(coord.Y))
	return url
}

// CreateTile fetches the tile asynchronously, consulting the cache first.
// done is invoked exactly once, on a background goroutine.
func (s *HTTPSource) CreateTile(coord tile.Coord, done DoneFunc) {
	go func() {
		s.sem <- struct{}{}
		defer func() { <-s.sem }()

		if s.opts.Cache != nil {
			if data, ok := s.opts.Cache.Get(coord.Key()); ok {
				img, _, err := image.Decode(bytes.NewReader(data))
				if err == nil {
					done(nil, img)
					return
				}
				// corrupt cache entry, refetch
				s.opts.Cache.Remove(coord.Key())
			}
		}
		if s.opts.DiskCache != nil {
			if data, ok := s.opts.DiskCache.Get(coord.Key()); ok {
				img, _, err := image.Decode(bytes.NewReader(data))
				if err == nil {
					if s.opts.Cache != nil {
						s.opts.Cache.Set(coord.Key(), data)
					}
					done(nil, img)
					return
				}
			}
		}

		if !s.opts.Cooldown.Allow() {
			done(ErrRateLimited, nil)
			return
		}

		img, data, err := s.fetch(coord)
		if err != nil {
			done(err, nil)
			return
		}
		if s.opts.Cache != nil {
			s.opts.Cache.Set(coord.Key(), data)
		}
		if s.opts.DiskCache != nil {
			s.opts.DiskCache.Set(coord.Key(), data)
		}
		done(nil, img)
	}()
}

// fetch performs one HTTP round trip. The request id rides in every
// returned error, so a "tileerror" listener can correlate the failure
// with the server-side request log.
func (s *HTTPSource) fetch(coord tile.Coord) (image.Image, []byte, error) {
	reqID := uuid.NewString()[:8]
	url := s.URL(coord)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("req %s: creating request for %s: %w", reqID, coord, err)
	}
	req.Header.Set("User-Agent", s.opts.UserAgent)
	req.Header.Set("Accept", "image/webp,image/png,image/jpeg,*/*")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("[Source] req %s: fetching %s failed: %v", reqID, coord, err)
		return nil, nil, fmt.Errorf("req %s: fetching %s: %w", reqID, coord, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Source] req %s: %s returned status %d", reqID, coord, resp.StatusCode)
		if IsRateLimitStatus(resp.StatusCode) {
			s.opts.Cooldown.Limited(resp.StatusCode)
		}
		return nil, nil, fmt.Errorf("req %s: fetching %s: unexpected status %d", reqID, coord, resp.StatusCode)
	}
	s.opts.Cooldown.Recovered()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("req %s: reading %s: %w", reqID, coord, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("req %s: decoding %s: %w", reqID, coord, err)
	}
	return img, data, nil
}
