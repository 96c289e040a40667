package whttp

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const USER_AGENT = "applinks (+https://github.com/sw33tLie/applinks)"

type WHTTPHeader struct {
	Name  string
	Value string
}

type WHTTPReq struct {
	URL     string
	Method  string
	Headers []WHTTPHeader
}

type WHTTPRes struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	// URL is the URL that was actually requested.
	URL *url.URL
}

func (r *WHTTPRes) BodyString() string { return string(r.Body) }

// IsRedirect reports a 3xx status.
func (r *WHTTPRes) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode <= 399
}

// ClientOptions configures NewClient.
type ClientOptions struct {
	Retries int
	Timeout time.Duration
	Proxy   string
}

// NewClient returns a retrying client that never follows redirects on its own:
// callers that care about redirects walk them explicitly.
func NewClient(opts ClientOptions) (*retryablehttp.Client, error) {
	client := retryablehttp.NewClient()
	client.Logger = log.New(io.Discard, "", 0)
	client.RetryMax = opts.Retries
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.HTTPClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	if opts.Timeout > 0 {
		client.HTTPClient.Timeout = opts.Timeout
	}

	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		client.HTTPClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}
	return client, nil
}

// SendHTTPRequest performs wReq and reads the full body.
func SendHTTPRequest(ctx context.Context, wReq *WHTTPReq, client *retryablehttp.Client) (*WHTTPRes, error) {
	if client == nil {
		var err error
		if client, err = NewClient(ClientOptions{}); err != nil {
			return nil, err
		}
	}
	method := wReq.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, wReq.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", USER_AGENT)
	for _, h := range wReq.Headers {
		req.Header.Set(h.Name, h.Value)
	}
	return Do(req, client)
}

// Do executes an already built request.
func Do(req *retryablehttp.Request, client *retryablehttp.Client) (*WHTTPRes, error) {
	resp, err := client.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &WHTTPRes{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
		URL:        req.URL,
	}, nil
}
