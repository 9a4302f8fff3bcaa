// Package netx holds HTTP helpers shared by the REST client, the native
// file bridge and the storage service: query parameter handling, detection
// of server suspension responses and raw streaming requests.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/vaultblob/internal/common"
)

// AddParamsToURL appends params to the query of rawURL, keeping any
// parameters that are already present.
func AddParamsToURL(rawURL string, params map[string]string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if len(params) == 0 {
		return u.String(), nil
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// JoinURL joins a base URL (scheme://host[/prefix]) and an absolute path.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// IsSuspensionResponse reports whether a status code together with the
// suspension time sent by the server asks the client to back off.
func IsSuspensionResponse(statusCode int, suspensionTime string) bool {
	if statusCode != http.StatusTooManyRequests && statusCode != http.StatusServiceUnavailable {
		return false
	}
	_, ok := ParseSuspensionTime(suspensionTime)
	return ok
}

// ParseSuspensionTime converts a suspension time in seconds to a duration.
// Non-positive or malformed values report false. Values are capped at
// common.MaxSuspension.
func ParseSuspensionTime(v string) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs <= 0 {
		return 0, false
	}
	d := time.Duration(secs * float64(time.Second))
	if d > common.MaxSuspension {
		d = common.MaxSuspension
	}
	return d, true
}

// SuspensionTimeFromHeader returns the server's suspension time in seconds,
// preferring Suspension-Time over Retry-After.
func SuspensionTimeFromHeader(h http.Header) string {
	if v := h.Get(common.SuspensionTimeHeaderName); v != "" {
		return v
	}
	return h.Get(common.RetryAfterHeaderName)
}

// Send issues a request with a streamed body and the given headers.
// The caller owns the returned response body.
func Send(ctx context.Context, client *http.Client, method, rawURL string, headers map[string]string, body io.Reader) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", common.MediaTypeBinary)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	return resp, nil
}
