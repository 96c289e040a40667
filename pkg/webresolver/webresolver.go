// Package webresolver resolves App Links by fetching the destination page
// and reading the al: meta tags it publishes.
package webresolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sw33tLie/applinks/internal/utils"
	"github.com/sw33tLie/applinks/pkg/applink"
	"github.com/sw33tLie/applinks/pkg/whttp"
)

const (
	MaxRedirects = 10

	preferHeader = "Prefer-Html-Meta-Tags"

	urlKey            = "url"
	appStoreIDKey     = "app_store_id"
	appNameKey        = "app_name"
	shouldFallbackKey = "should_fallback"
)

var (
	ErrMissingData      = errors.New("Invalid network response - missing data")
	ErrTooManyRedirects = fmt.Errorf("stopped after %d redirects", MaxRedirects)
)

// Result is the final response of a redirect chain.
type Result struct {
	Response *whttp.WHTTPRes
	Data     []byte
}

type Resolver struct {
	client *retryablehttp.Client
	idiom  applink.Idiom
}

func New(client *retryablehttp.Client, idiom applink.Idiom) (*Resolver, error) {
	if client == nil {
		var err error
		if client, err = whttp.NewClient(whttp.ClientOptions{}); err != nil {
			return nil, err
		}
	}
	return &Resolver{client: client, idiom: idiom}, nil
}

// FollowRedirects fetches u, walking 3xx responses until it reaches a page.
func (r *Resolver) FollowRedirects(ctx context.Context, u *url.URL) (*Result, error) {
	current := u
	for hop := 0; ; hop++ {
		res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
			URL:     current.String(),
			Headers: []whttp.WHTTPHeader{{Name: preferHeader, Value: "al"}},
		}, r.client)
		if err != nil {
			return nil, err
		}

		if res.IsRedirect() {
			if next := redirectTarget(current, res); next != nil {
				if hop >= MaxRedirects {
					return nil, ErrTooManyRedirects
				}
				utils.Log.Debugf("Following %d redirect from %s to %s", res.StatusCode, current, next)
				current = next
				continue
			}
			utils.Log.Debugf("Redirect from %s has no usable Location, using it as the final response", current)
		}

		if len(res.Body) == 0 {
			return nil, ErrMissingData
		}
		return &Result{Response: res, Data: res.Body}, nil
	}
}

func redirectTarget(current *url.URL, res *whttp.WHTTPRes) *url.URL {
	location := res.Headers.Get("Location")
	if location == "" {
		return nil
	}
	next, err := current.Parse(location)
	if err != nil {
		return nil
	}
	return next
}

// AppLink fetches destination and builds an AppLink from its al: meta tags.
// A page without usable tags still produces a link with no targets.
func (r *Resolver) AppLink(ctx context.Context, destination *url.URL) (*applink.AppLink, error) {
	result, err := r.FollowRedirects(ctx, destination)
	if err != nil {
		return nil, err
	}

	data, err := ParseALData(result.Data)
	if err != nil {
		utils.Log.Debugf("Could not parse app link meta tags from %s: %v", result.Response.URL, err)
		data = nil
	}
	return r.AppLinkFromALData(data, destination), nil
}

// AppLinkFromALData builds an AppLink from harvested meta tag data. The
// destination is both the source URL and the default web fallback.
func (r *Resolver) AppLinkFromALData(data *Node, destination *url.URL) *applink.AppLink {
	var targets []applink.Target
	for _, key := range r.idiom.PlatformKeys() {
		for _, platform := range data.Get(key) {
			urls := platform.Get(urlKey)
			storeIDs := platform.Get(appStoreIDKey)
			names := platform.Get(appNameKey)

			count := max(len(urls), len(storeIDs), len(names))
			for i := 0; i < count; i++ {
				rawURL, _ := platform.ValueAt(urlKey, i)
				storeID, _ := platform.ValueAt(appStoreIDKey, i)
				name, _ := platform.ValueAt(appNameKey, i)
				targets = append(targets, applink.Target{
					URL:        applink.ParseURL(rawURL),
					AppStoreID: storeID,
					AppName:    name,
				})
			}
		}
	}

	webURL := destination
	if web := data.Get(applink.WebKey); len(web) > 0 {
		if raw, ok := web[0].ValueAt(urlKey, 0); ok {
			if u := applink.ParseURL(raw); u != nil {
				webURL = u
			}
		}
		if raw, ok := web[0].ValueAt(shouldFallbackKey, 0); ok && !applink.ShouldFallback(raw) {
			webURL = nil
		}
	}

	return applink.New(destination, targets, webURL)
}
