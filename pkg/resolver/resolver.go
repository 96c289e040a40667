// Package resolver resolves App Links through the App Link index endpoint of
// the Graph API, caching every link it builds.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sw33tLie/applinks/internal/utils"
	"github.com/sw33tLie/applinks/pkg/applink"
	"github.com/sw33tLie/applinks/pkg/whttp"
	"github.com/tidwall/gjson"
)

const (
	appLinksKey       = "app_links"
	idKey             = "id"
	urlKey            = "url"
	appStoreIDKey     = "app_store_id"
	appNameKey        = "app_name"
	shouldFallbackKey = "should_fallback"
)

var ErrInvalidResponse = errors.New("invalid app link index response")

// GraphError is a non-2xx answer from the index endpoint.
type GraphError struct {
	StatusCode int
	Message    string
}

func (e *GraphError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("app link index returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("app link index returned status %d: %s", e.StatusCode, e.Message)
}

type Resolver struct {
	builder *RequestBuilder
	client  *retryablehttp.Client
	cache   Cache

	warnOnce sync.Once
}

// New returns a Resolver. A nil cache gets a fresh MemoryCache and a nil
// client gets whttp's default client.
func New(builder *RequestBuilder, client *retryablehttp.Client, cache Cache) (*Resolver, error) {
	if builder == nil {
		builder = &RequestBuilder{}
	}
	if client == nil {
		var err error
		if client, err = whttp.NewClient(whttp.ClientOptions{}); err != nil {
			return nil, err
		}
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Resolver{builder: builder, client: client, cache: cache}, nil
}

// AppLink resolves a single URL, answering from the cache when possible.
func (r *Resolver) AppLink(ctx context.Context, destination *url.URL) (*applink.AppLink, error) {
	links, err := r.AppLinks(ctx, []*url.URL{destination})
	if err != nil {
		return nil, err
	}
	return links[destination.String()], nil
}

// AppLinks resolves urls in one index lookup. The result is keyed by absolute URL string.
func (r *Resolver) AppLinks(ctx context.Context, urls []*url.URL) (map[string]*applink.AppLink, error) {
	links := make(map[string]*applink.AppLink, len(urls))
	var missing []*url.URL

	for _, u := range urls {
		key := u.String()
		if _, seen := links[key]; seen {
			continue
		}
		cached, err := r.cache.Get(ctx, key)
		if err != nil {
			utils.Log.Warnf("App link cache lookup for %s failed: %v", key, err)
		}
		if cached != nil {
			links[key] = cached
			continue
		}
		links[key] = nil
		missing = append(missing, u)
	}

	if len(missing) == 0 {
		return links, nil
	}

	if r.builder.Tokens.Token() == "" {
		r.warnOnce.Do(func() {
			utils.Log.Warn("A user access token or client token is required to use the app link index resolver")
		})
	}

	req, err := r.builder.Request(ctx, missing)
	if err != nil {
		return nil, err
	}
	utils.Log.Debugf("Resolving %d app link(s) through %s", len(missing), req.URL.Host)

	res, err := whttp.Do(req, r.client)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &GraphError{
			StatusCode: res.StatusCode,
			Message:    gjson.GetBytes(res.Body, "error.message").String(),
		}
	}
	if !gjson.ValidBytes(res.Body) {
		return nil, ErrInvalidResponse
	}
	body := gjson.ParseBytes(res.Body)
	if !body.IsObject() {
		return nil, ErrInvalidResponse
	}
	entries := body.Map()

	for _, u := range missing {
		key := u.String()
		link := BuildAppLink(u, entries[key], r.builder.Idiom)
		if err := r.cache.Put(ctx, key, link); err != nil {
			utils.Log.Warnf("Could not cache app link for %s: %v", key, err)
		}
		links[key] = link
	}
	return links, nil
}

// BuildAppLink turns one index entry into an AppLink for destination.
func BuildAppLink(destination *url.URL, entry gjson.Result, idiom applink.Idiom) *applink.AppLink {
	source := destination
	if id := applink.ParseURL(entry.Get(idKey).String()); id != nil {
		source = id
	}

	appLinks := entry.Get(appLinksKey)
	var targets []applink.Target
	for _, key := range idiom.PlatformKeys() {
		appLinks.Get(key).ForEach(func(_, raw gjson.Result) bool {
			if !raw.IsObject() {
				return true
			}
			targets = append(targets, applink.Target{
				URL:        applink.ParseURL(raw.Get(urlKey).String()),
				AppStoreID: raw.Get(appStoreIDKey).String(),
				AppName:    raw.Get(appNameKey).String(),
			})
			return true
		})
	}

	return applink.New(source, targets, webFallback(destination, appLinks.Get(applink.WebKey)))
}

// webFallback defaults to the destination itself; opting out must be explicit.
func webFallback(destination *url.URL, web gjson.Result) *url.URL {
	if sf := web.Get(shouldFallbackKey); sf.Exists() {
		switch sf.Type {
		case gjson.False:
			return nil
		case gjson.Number:
			if sf.Num == 0 {
				return nil
			}
		case gjson.String:
			if !applink.ShouldFallback(sf.Str) {
				return nil
			}
		}
	}
	if u := applink.ParseURL(web.Get(urlKey).String()); u != nil {
		return u
	}
	return destination
}
