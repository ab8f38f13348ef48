package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	maxURLLength        = 2048
	defaultMaxBody      = int64(2 << 20) // 2 MiB
	defaultFetchTimeout = 25 * time.Second

	// Some sites block the default Go client outright.
	fetchUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36"
)

// FetcherConfig configures a SafeFetcher. Resolve and Transport exist so
// tests can point the fetcher at local servers; production code leaves them
// nil.
type FetcherConfig struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	Resolve      func(ctx context.Context, host string) ([]net.IP, error)
	Transport    http.RoundTripper
}

// SafeFetcher performs outbound page fetches on caller-supplied URLs. It is
// the primary SSRF defense: the target host is resolved and checked against
// private/loopback/link-local ranges before any request is issued, and a
// redirect target is re-checked before it is followed.
type SafeFetcher struct {
	client       *http.Client
	timeout      time.Duration
	maxBodyBytes int64
	resolve      func(ctx context.Context, host string) ([]net.IP, error)
}

// NewSafeFetcher creates a new SafeFetcher instance
func NewSafeFetcher(cfg FetcherConfig) *SafeFetcher {
	f := &SafeFetcher{
		timeout:      cfg.Timeout,
		maxBodyBytes: cfg.MaxBodyBytes,
		resolve:      cfg.Resolve,
	}
	if f.timeout <= 0 {
		f.timeout = defaultFetchTimeout
	}
	if f.maxBodyBytes <= 0 {
		f.maxBodyBytes = defaultMaxBody
	}
	if f.resolve == nil {
		f.resolve = func(ctx context.Context, host string) ([]net.IP, error) {
			addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
			if err != nil {
				return nil, err
			}
			ips := make([]net.IP, 0, len(addrs))
			for _, a := range addrs {
				ips = append(ips, a.IP)
			}
			return ips, nil
		}
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 15 * time.Second,
			MaxIdleConns:          20,
			MaxIdleConnsPerHost:   5,
			IdleConnTimeout:       90 * time.Second,
		}
	}

	f.client = &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// At most one redirect, and its target gets the same scrutiny
			// as the original URL.
			if len(via) >= 2 {
				return fmt.Errorf("too many redirects")
			}
			if err := f.ValidateURL(req.Context(), req.URL.String()); err != nil {
				return fmt.Errorf("redirect blocked: %w", err)
			}
			return nil
		},
	}

	return f
}

// ValidateURL checks that rawURL is syntactically acceptable and resolves
// only to public addresses. It performs no fetch.
func (f *SafeFetcher) ValidateURL(ctx context.Context, rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidInput)
	}
	if len(rawURL) > maxURLLength {
		return fmt.Errorf("%w: url exceeds %d characters", ErrInvalidInput, maxURLLength)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: malformed url", ErrInvalidInput)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidInput, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: url has no host", ErrInvalidInput)
	}

	if blockedHostname(host) {
		return fmt.Errorf("%w: host %q is not publicly reachable", ErrTargetUnreachable, host)
	}

	// Literal IPs are checked directly; hostnames are resolved first so a
	// DNS entry pointing at an internal address is caught before dialing.
	if ip := net.ParseIP(host); ip != nil {
		if !publicIP(ip) {
			return fmt.Errorf("%w: address %s is not publicly routable", ErrTargetUnreachable, ip)
		}
		return nil
	}

	ips, err := f.resolve(ctx, host)
	if err != nil || len(ips) == 0 {
		return fmt.Errorf("%w: could not resolve %q", ErrTargetUnreachable, host)
	}
	for _, ip := range ips {
		if !publicIP(ip) {
			return fmt.Errorf("%w: %q resolves to non-public address %s", ErrTargetUnreachable, host, ip)
		}
	}
	return nil
}

// Fetch retrieves the page at rawURL, bounded by the configured wall-clock
// timeout and body cap. The URL must pass ValidateURL first; any redirect
// target is validated before it is followed.
func (f *SafeFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := f.ValidateURL(ctx, rawURL); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w: page fetch timed out after %v", ErrUpstreamTimeout, f.timeout)
		}
		return "", fmt.Errorf("%w: %v", ErrTargetUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: remote server returned status %d", ErrTargetUnreachable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w: page fetch timed out after %v", ErrUpstreamTimeout, f.timeout)
		}
		return "", fmt.Errorf("%w: failed to read response body", ErrTargetUnreachable)
	}

	return string(body), nil
}

// blockedHostname rejects names that always point inside the deployment.
func blockedHostname(host string) bool {
	h := strings.ToLower(strings.TrimSuffix(host, "."))
	if h == "localhost" || strings.HasSuffix(h, ".localhost") {
		return true
	}
	return strings.HasSuffix(h, ".local") || strings.HasSuffix(h, ".internal")
}

// cgnatBlock is 100.64.0.0/10 (RFC 6598), used by cloud-internal services.
var cgnatBlock = &net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}

// publicIP reports whether ip is routable from the public internet.
// Loopback, RFC1918/ULA, link-local (including 169.254.169.254 metadata
// endpoints) and CGNAT ranges are all rejected.
func publicIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() {
		return false
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsInterfaceLocalMulticast() {
		return false
	}
	if ip4 := ip.To4(); ip4 != nil && cgnatBlock.Contains(ip4) {
		return false
	}
	return true
}
