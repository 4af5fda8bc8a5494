// Package registry implements the HTTP client for the package registry's
// v1 API. The client caches responses, retries transient failures with
// exponential backoff, and isolates registry outages behind per-host
// circuit breakers.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cenk/backoff"

	"github.com/cocoatly/cocoatly/pkg/cache"
	"github.com/cocoatly/cocoatly/pkg/config"
	cocoaerrors "github.com/cocoatly/cocoatly/pkg/errors"
	"github.com/cocoatly/cocoatly/pkg/observability"
	"github.com/cocoatly/cocoatly/pkg/resolver"
)

const defaultUserAgent = "cocoatly/1.0"

// Client talks to a single registry endpoint.
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	http       *http.Client
	breakers   *breakerSet
	cache      cache.Cache
	keyer      cache.Keyer
	cacheTTL   time.Duration
	maxRetries uint64
	retryDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) { cl.userAgent = ua }
}

// WithCache enables response caching.
func WithCache(c cache.Cache, keyer cache.Keyer, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.keyer = keyer
		cl.cacheTTL = ttl
	}
}

// New creates a client for the configured default registry.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	ep, err := cfg.DefaultEndpoint()
	if err != nil {
		return nil, err
	}

	if cfg.Security.RejectInsecureRegistries {
		if u, err := url.Parse(ep.URL); err == nil && u.Scheme == "http" && !isLoopback(u.Hostname()) {
			return nil, cocoaerrors.New(cocoaerrors.ErrCodeInvalidConfig,
				"registry %s uses plain http; set security.reject_insecure_registries = false to allow", ep.URL)
		}
	}

	httpClient, err := newHTTPClient(cfg.Network.Timeout(), proxyURL(cfg))
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:    strings.TrimRight(ep.URL, "/"),
		token:      cfg.AuthToken(cfg.Registry.DefaultRegistry),
		userAgent:  defaultUserAgent,
		http:       httpClient,
		breakers:   newBreakerSet(),
		cache:      cache.NewNullCache(),
		keyer:      cache.NewDefaultKeyer(),
		maxRetries: uint64(cfg.Network.RetryAttempts),
		retryDelay: cfg.Network.RetryDelay(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func proxyURL(cfg *config.Config) string {
	if cfg.Network.UseProxy {
		return cfg.Network.ProxyURL
	}
	return ""
}

func isLoopback(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// GetPackage fetches a package's metadata, including its dependency list.
func (c *Client) GetPackage(ctx context.Context, name string) (*resolver.Package, error) {
	if err := cocoaerrors.ValidatePackageName(name); err != nil {
		return nil, err
	}

	key := c.keyer.MetadataKey(c.baseURL, name)
	if data, ok := c.cacheGet(ctx, key, "package"); ok {
		var doc packageDoc
		if err := json.Unmarshal(data, &doc); err == nil {
			return doc.toPackage()
		}
	}

	body, err := c.get(ctx, "/api/v1/packages/"+url.PathEscape(name), nil)
	if err != nil {
		if cocoaerrors.GetCode(err) == cocoaerrors.ErrCodeNotFound {
			return nil, cocoaerrors.New(cocoaerrors.ErrCodePackageNotFound, "package not found: %s", name)
		}
		return nil, err
	}

	var doc packageDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, cocoaerrors.Wrap(cocoaerrors.ErrCodeRegistry, err, "decoding package %s", name)
	}

	c.cacheSet(ctx, key, "package", body)
	return doc.toPackage()
}

// GetPackageVersions fetches all published versions of a package.
func (c *Client) GetPackageVersions(ctx context.Context, name string) ([]resolver.PackageVersion, error) {
	if err := cocoaerrors.ValidatePackageName(name); err != nil {
		return nil, err
	}

	key := c.keyer.VersionsKey(c.baseURL, name)
	if data, ok := c.cacheGet(ctx, key, "versions"); ok {
		if versions, err := decodeVersions(data); err == nil {
			return versions, nil
		}
	}

	body, err := c.get(ctx, "/api/v1/packages/"+url.PathEscape(name)+"/versions", nil)
	if err != nil {
		return nil, err
	}

	versions, err := decodeVersions(body)
	if err != nil {
		return nil, cocoaerrors.Wrap(cocoaerrors.ErrCodeRegistry, err, "decoding versions for %s", name)
	}

	c.cacheSet(ctx, key, "versions", body)
	return versions, nil
}

func decodeVersions(body []byte) ([]resolver.PackageVersion, error) {
	var resp versionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	versions := make([]resolver.PackageVersion, 0, len(resp.Versions))
	for _, doc := range resp.Versions {
		v, err := doc.toPackageVersion()
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// GetPackageVersion fetches a single published version, including its
// download URL and checksum.
func (c *Client) GetPackageVersion(ctx context.Context, name, version string) (resolver.PackageVersion, error) {
	if err := cocoaerrors.ValidatePackageName(name); err != nil {
		return resolver.PackageVersion{}, err
	}

	path := "/api/v1/packages/" + url.PathEscape(name) + "/versions/" + url.PathEscape(version)
	body, err := c.get(ctx, path, nil)
	if err != nil {
		if cocoaerrors.GetCode(err) == cocoaerrors.ErrCodeNotFound {
			return resolver.PackageVersion{}, cocoaerrors.New(cocoaerrors.ErrCodePackageNotFound,
				"package not found: %s@%s", name, version)
		}
		return resolver.PackageVersion{}, err
	}

	var doc versionDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return resolver.PackageVersion{}, cocoaerrors.Wrap(cocoaerrors.ErrCodeRegistry, err,
			"decoding version %s of %s", version, name)
	}
	return doc.toPackageVersion()
}

// SearchOptions narrows a package search.
type SearchOptions struct {
	Limit      int
	Offset     int
	Categories []string
	Keywords   []string
}

// Search queries the registry's full-text package search.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResponse, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(opts.Limit))
	params.Set("offset", strconv.Itoa(opts.Offset))
	if len(opts.Categories) > 0 {
		params.Set("categories", strings.Join(opts.Categories, ","))
	}
	if len(opts.Keywords) > 0 {
		params.Set("keywords", strings.Join(opts.Keywords, ","))
	}

	key := c.keyer.SearchKey(c.baseURL, params.Encode(), cache.SearchKeyOpts{Limit: opts.Limit, Offset: opts.Offset})
	if data, ok := c.cacheGet(ctx, key, "search"); ok {
		var resp SearchResponse
		if err := json.Unmarshal(data, &resp); err == nil {
			return &resp, nil
		}
	}

	body, err := c.get(ctx, "/api/v1/packages/search", params)
	if err != nil {
		return nil, err
	}

	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, cocoaerrors.Wrap(cocoaerrors.ErrCodeRegistry, err, "decoding search response")
	}

	c.cacheSet(ctx, key, "search", body)
	return &resp, nil
}

// Publish uploads a package artifact together with its metadata.
func (c *Client) Publish(ctx context.Context, pkg *resolver.Package, artifactPath, checksum, checksumAlgorithm string) error {
	f, err := os.Open(artifactPath)
	if err != nil {
		return cocoaerrors.Wrap(cocoaerrors.ErrCodeFileNotFound, err, "opening artifact %s", artifactPath)
	}
	defer f.Close()

	pkgJSON, err := json.Marshal(packageToDoc(pkg))
	if err != nil {
		return cocoaerrors.Wrap(cocoaerrors.ErrCodeInternal, err, "serializing package metadata")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("package_json", string(pkgJSON))
	_ = w.WriteField("checksum", checksum)
	_ = w.WriteField("checksum_algorithm", checksumAlgorithm)
	part, err := w.CreateFormFile("artifact", filepath.Base(artifactPath))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	_, err = c.do(ctx, http.MethodPost, "/api/v1/packages/publish", nil, buf.Bytes(), w.FormDataContentType())
	return err
}

// RecordDownload reports a download to the registry's stats endpoint.
// Stats are best effort: failures are swallowed so they never break installs.
func (c *Client) RecordDownload(ctx context.Context, name, version string) {
	payload, _ := json.Marshal(map[string]string{
		"package": name,
		"version": version,
	})
	_, _ = c.do(ctx, http.MethodPost, "/api/v1/stats/download", nil, payload, "application/json")
}

// BreakerStates reports the circuit breaker state per registry host.
func (c *Client) BreakerStates() map[string]string {
	return c.breakers.States()
}

// BaseURL returns the registry endpoint this client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

func packageToDoc(pkg *resolver.Package) packageDoc {
	deps := make([]dependencyDoc, 0, len(pkg.Dependencies))
	for _, d := range pkg.Dependencies {
		deps = append(deps, dependencyDoc{
			Name:               d.Name,
			VersionRequirement: d.Requirement.String(),
			Optional:           d.Optional,
			Features:           d.Features,
		})
	}
	return packageDoc{
		ID:           pkg.ID,
		Name:         pkg.Name,
		Version:      pkg.Version.String(),
		Description:  pkg.Description,
		Authors:      pkg.Authors,
		License:      pkg.License,
		Homepage:     pkg.Homepage,
		Repository:   pkg.Repository,
		Keywords:     pkg.Keywords,
		Dependencies: deps,
	}
}

func (c *Client) cacheGet(ctx context.Context, key, keyType string) ([]byte, bool) {
	data, hit, err := c.cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (c *Client) cacheSet(ctx context.Context, key, keyType string, data []byte) {
	if err := c.cache.Set(ctx, key, data, c.cacheTTL); err == nil {
		observability.Cache().OnCacheSet(ctx, keyType, len(data))
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, params, nil, "")
}

// do performs one API call with retries and circuit breaking. Client errors
// (4xx) are permanent; rate limits and server errors are retried.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body []byte, contentType string) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	breaker := c.breakers.forURL(u)

	var result []byte
	operation := func() error {
		if !breaker.Ready() {
			return backoff.Permanent(cocoaerrors.New(cocoaerrors.ErrCodeRegistry,
				"circuit breaker open for %s", hostOf(u)))
		}
		return breaker.Call(func() error {
			data, err := c.doOnce(ctx, method, u, path, body, contentType)
			if err != nil {
				return err
			}
			result = data
			return nil
		}, 0)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryDelay
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) doOnce(ctx context.Context, method, fullURL, path string, body []byte, contentType string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	host := hostOf(fullURL)
	observability.HTTP().OnRequest(ctx, method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, method, host, path, err)
		return nil, cocoaerrors.Wrap(cocoaerrors.ErrCodeNetwork, err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	observability.HTTP().OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return io.ReadAll(resp.Body)

	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(cocoaerrors.New(cocoaerrors.ErrCodeNotFound, "%s: not found", path))

	case resp.StatusCode == http.StatusUnauthorized:
		return nil, backoff.Permanent(cocoaerrors.New(cocoaerrors.ErrCodeUnauthorized,
			"registry rejected credentials for %s", host))

	case resp.StatusCode == http.StatusForbidden:
		return nil, backoff.Permanent(cocoaerrors.New(cocoaerrors.ErrCodeForbidden,
			"access denied to %s", path))

	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, cocoaerrors.New(cocoaerrors.ErrCodeRateLimited, "rate limited by %s", host)

	case resp.StatusCode >= 500:
		return nil, cocoaerrors.New(cocoaerrors.ErrCodeRegistry, "%s returned status %d", host, resp.StatusCode)

	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, backoff.Permanent(cocoaerrors.New(cocoaerrors.ErrCodeRegistry,
			"unexpected status %d from %s: %s", resp.StatusCode, path, snippet))
	}
}

// Ensure Client implements the resolver's registry interface.
var _ resolver.Registry = (*Client)(nil)
