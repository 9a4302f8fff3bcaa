package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/vaultblob/internal/client/suspension"
	"github.com/dmitrijs2005/vaultblob/internal/common"
	"github.com/dmitrijs2005/vaultblob/internal/logging"
	"github.com/dmitrijs2005/vaultblob/internal/netx"
)

// RequestOptions describes one REST request.
type RequestOptions struct {
	QueryParams map[string]string
	Headers     map[string]string
	Body        []byte
	// ResponseType is sent as Accept.
	ResponseType string
	// BaseURL overrides the client's origin, e.g. with a storage server.
	BaseURL string
}

type RestClient struct {
	origin     string
	httpClient *http.Client
	suspension *suspension.Controller
	log        logging.Logger
}

func NewRestClient(origin string, httpClient *http.Client, ctrl *suspension.Controller, log logging.Logger) *RestClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logging.NewDiscardLogger()
	}
	return &RestClient{origin: origin, httpClient: httpClient, suspension: ctrl, log: log}
}

// Origin returns the base URL used when a request sets no BaseURL.
func (c *RestClient) Origin() string {
	return c.origin
}

// Request performs a request and returns the response body. The call waits
// while the session is suspended and is replayed when the response asks the
// client to back off.
func (c *RestClient) Request(ctx context.Context, path, method string, opts RequestOptions) ([]byte, error) {
	return suspension.Do(ctx, c.suspension, func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, path, method, opts)
	})
}

func (c *RestClient) do(ctx context.Context, path, method string, opts RequestOptions) ([]byte, error) {
	base := opts.BaseURL
	if base == "" {
		base = c.origin
	}

	url, err := netx.AddParamsToURL(netx.JoinURL(base, path), opts.QueryParams)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	headers := make(map[string]string, len(opts.Headers)+1)
	for k, v := range opts.Headers {
		headers[k] = v
	}
	if opts.ResponseType != "" {
		headers["Accept"] = opts.ResponseType
	}

	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}

	c.log.Debug(ctx, "rest request", "method", method, "url", url, "size", len(opts.Body))

	resp, err := netx.Send(ctx, c.httpClient, method, url, headers, body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", common.ErrNetwork, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}

	if st := netx.SuspensionTimeFromHeader(resp.Header); netx.IsSuspensionResponse(resp.StatusCode, st) {
		d, _ := netx.ParseSuspensionTime(st)
		return nil, &suspension.Signal{StatusCode: resp.StatusCode, Duration: d}
	}

	return nil, &RestError{
		StatusCode:   resp.StatusCode,
		Method:       method,
		URL:          url,
		ErrorID:      resp.Header.Get(common.ErrorIDHeaderName),
		Precondition: resp.Header.Get(common.PreconditionHeaderName),
		Message:      strings.TrimSpace(string(data)),
	}
}
