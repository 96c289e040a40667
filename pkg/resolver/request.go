package resolver

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sw33tLie/applinks/pkg/applink"
	"github.com/sw33tLie/applinks/pkg/whttp"
)

const (
	DEFAULT_GRAPH_URL     = "https://graph.facebook.com"
	DEFAULT_GRAPH_VERSION = "v17.0"
)

// Tokens are the credentials sent with index lookups.
type Tokens struct {
	AppID       string
	ClientToken string
	AccessToken string
}

// Token returns the user access token, falling back to the app's client token.
func (t Tokens) Token() string {
	if t.AccessToken != "" {
		return t.AccessToken
	}
	if t.AppID != "" && t.ClientToken != "" {
		return t.AppID + "|" + t.ClientToken
	}
	return ""
}

// RequestBuilder builds the App Link index lookup for a batch of URLs.
type RequestBuilder struct {
	GraphURL     string
	GraphVersion string
	Idiom        applink.Idiom
	Tokens       Tokens
}

// IdiomSpecificField is the platform field requested ahead of the generic ios one.
func (b *RequestBuilder) IdiomSpecificField() string {
	return b.Idiom.Field()
}

func (b *RequestBuilder) fields() string {
	var fields []string
	if f := b.IdiomSpecificField(); f != "" {
		fields = append(fields, f)
	}
	fields = append(fields, applink.IOSKey, applink.WebKey)
	return "app_links.fields(" + strings.Join(fields, ",") + ")"
}

// URL returns the lookup URL for urls.
func (b *RequestBuilder) URL(urls []*url.URL) string {
	base := b.GraphURL
	if base == "" {
		base = DEFAULT_GRAPH_URL
	}
	version := b.GraphVersion
	if version == "" {
		version = DEFAULT_GRAPH_VERSION
	}

	ids := make([]string, 0, len(urls))
	for _, u := range urls {
		ids = append(ids, u.String())
	}

	q := url.Values{}
	q.Set("fields", b.fields())
	q.Set("ids", strings.Join(ids, ","))
	if token := b.Tokens.Token(); token != "" {
		q.Set("access_token", token)
	}
	return strings.TrimSuffix(base, "/") + "/" + version + "/?" + q.Encode()
}

// Request builds the GET request for urls.
func (b *RequestBuilder) Request(ctx context.Context, urls []*url.URL) (*retryablehttp.Request, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, b.URL(urls), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", whttp.USER_AGENT)
	req.Header.Set("Accept", "application/json")
	return req, nil
}
