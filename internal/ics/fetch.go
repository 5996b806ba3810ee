package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	appLog "feedcal/internal/log"
)

const (
	fetchTimeout   = 15 * time.Second
	maxRedirects   = 3
	maxBodyBytes   = 5 << 20 // 5 MB
	fetchUserAgent = "feedcal/1.0 (+https://github.com/feedcal/feedcal)"
)

// Fetch error kinds, for logging only. Callers branch on the error being a
// *FetchError, never on its kind.
const (
	fetchBlocked = "blocked"
	fetchNetwork = "network"
	fetchStatus  = "status"
	fetchSize    = "size"
)

var errBlockedRedirect = errors.New("redirect target blocked by URL policy")

// FetchError is the single failure category of the fetch layer. Network
// errors, timeouts, refused URLs, bad statuses, and oversized bodies all
// collapse into it; Kind distinguishes them in logs.
type FetchError struct {
	Kind string
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", redactURL(e.URL), e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher retrieves raw feed bodies with a fixed timeout, a redirect bound,
// and a response size ceiling. Every URL, original and redirected, must pass
// IsSafeURL.
type Fetcher struct {
	client *http.Client
	safe   func(string) bool
}

// NewFetcher creates a Fetcher with the standard limits and IsSafeURL as
// its URL policy.
func NewFetcher() *Fetcher {
	return newFetcher(IsSafeURL)
}

func newFetcher(safe func(string) bool) *Fetcher {
	f := &Fetcher{safe: safe}
	f.client = &http.Client{
		Timeout: fetchTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			if !f.safe(req.URL.String()) {
				return errBlockedRedirect
			}
			return nil
		},
	}
	return f
}

// Fetch retrieves the body at url. The returned error is always a
// *FetchError; its body is at most maxBodyBytes and the transfer is aborted
// rather than buffered past that point.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if !f.safe(url) {
		return nil, &FetchError{Kind: fetchBlocked, URL: url, Err: errors.New("url blocked by policy")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Kind: fetchNetwork, URL: url, Err: err}
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	appLog.Debug("feed fetch start", "url", redactURL(url))

	resp, err := f.client.Do(req)
	if err != nil {
		kind := fetchNetwork
		if errors.Is(err, errBlockedRedirect) {
			kind = fetchBlocked
		}
		return nil, &FetchError{Kind: kind, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Kind: fetchStatus, URL: url, Err: errors.New(resp.Status)}
	}

	// Read one byte past the ceiling so an oversized body is detectable;
	// closing the response aborts the rest of the transfer.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, &FetchError{Kind: fetchNetwork, URL: url, Err: err}
	}
	if len(body) > maxBodyBytes {
		return nil, &FetchError{Kind: fetchSize, URL: url, Err: fmt.Errorf("body exceeds %d bytes", maxBodyBytes)}
	}

	appLog.Debug("feed fetch done", "url", redactURL(url), "bytes", len(body))
	return body, nil
}

// redactURL hides path and query of a feed URL for logging. Private feed
// URLs routinely embed access tokens.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "feed://...(redacted)"
	}

	j := i
	for j < len(u) && u[j] != '/' {
		j++
	}
	return u[:j] + redactedSuffix
}
