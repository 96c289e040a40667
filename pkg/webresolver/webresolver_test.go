package webresolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sw33tLie/applinks/pkg/applink"
)

const page = `<html><head>
<meta property="al:iphone:url" content="example-iphone://things/1">
<meta property="al:iphone:app_store_id" content="111">
<meta property="al:iphone:app_name" content="Example iPhone">
<meta property="al:ios:url" content="example://things/1">
<meta property="al:ios:app_store_id" content="123">
<meta property="al:ios:app_name" content="Example">
<meta property="al:ios:url" content="example2://things/1">
<meta property="al:ios:app_store_id" content="456">
<meta property="al:android:url" content="example://things/1">
<meta property="al:android:package" content="com.example.app">
<meta property="al:web:url" content="http://example.com/web">
<meta property="og:title" content="not an app link">
</head><body></body></html>`

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func newResolver(t *testing.T, idiom applink.Idiom) *Resolver {
	t.Helper()
	r, err := New(nil, idiom)
	require.NoError(t, err)
	return r
}

func TestFollowRedirectsSendsPreferHeader(t *testing.T) {
	var header string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("Prefer-Html-Meta-Tags")
		w.Write([]byte("foo"))
	}))
	defer srv.Close()

	result, err := newResolver(t, applink.Phone).FollowRedirects(context.Background(), mustParse(t, srv.URL))
	require.NoError(t, err)
	assert.Equal(t, "al", header)
	assert.Equal(t, []byte("foo"), result.Data)
	assert.Equal(t, http.StatusOK, result.Response.StatusCode)
}

func TestFollowRedirectsWithMissingData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result, err := newResolver(t, applink.Phone).FollowRedirects(context.Background(), mustParse(t, srv.URL))
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrMissingData)
	assert.Equal(t, "Invalid network response - missing data", err.Error())
}

func TestFollowRedirectsWithTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	result, err := newResolver(t, applink.Phone).FollowRedirects(context.Background(), mustParse(t, srv.URL))
	assert.Nil(t, result)
	assert.Error(t, err)
}

func TestFollowRedirectsWalksLocation(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		switch r.URL.Path {
		case "/start":
			w.Header().Set("Location", "/middle")
			w.WriteHeader(http.StatusMultipleChoices)
		case "/middle":
			w.Header().Set("Location", "/redirected")
			w.WriteHeader(399)
		default:
			w.Write([]byte("final " + r.URL.Path))
		}
	}))
	defer srv.Close()

	result, err := newResolver(t, applink.Phone).FollowRedirects(context.Background(), mustParse(t, srv.URL+"/start"))
	require.NoError(t, err)
	assert.Equal(t, "final /redirected", string(result.Data))
	assert.Equal(t, "/redirected", result.Response.URL.Path)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFollowRedirectsWithoutLocationIsFinal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusMultipleChoices)
		w.Write([]byte("choices"))
	}))
	defer srv.Close()

	result, err := newResolver(t, applink.Phone).FollowRedirects(context.Background(), mustParse(t, srv.URL))
	require.NoError(t, err)
	assert.Equal(t, "choices", string(result.Data))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFollowRedirectsStopsOnLoops(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		http.Redirect(w, r, fmt.Sprintf("/hop/%d", n), http.StatusFound)
	}))
	defer srv.Close()

	_, err := newResolver(t, applink.Phone).FollowRedirects(context.Background(), mustParse(t, srv.URL))
	assert.True(t, errors.Is(err, ErrTooManyRedirects))
	assert.Equal(t, int32(MaxRedirects+1), atomic.LoadInt32(&calls))
}

func TestBuildingLinkFromEmptyData(t *testing.T) {
	dest := mustParse(t, "http://example.com/1234567890")
	for _, data := range []*Node{nil, BuildALData(nil)} {
		link := newResolver(t, applink.Phone).AppLinkFromALData(data, dest)
		assert.Equal(t, dest.String(), link.SourceURL().String())
		assert.Equal(t, dest.String(), link.WebURL().String())
		assert.Empty(t, link.Targets())
	}
}

func TestBuildingLinkWithInvalidData(t *testing.T) {
	data := BuildALData([]MetaTag{
		{Property: "al:iphone:url"},
		{Property: "al:ios:url", Content: "not a url", HasContent: true},
	})
	dest := mustParse(t, "http://example.com/1234567890")

	link := newResolver(t, applink.Phone).AppLinkFromALData(data, dest)
	assert.Equal(t, dest.String(), link.WebURL().String())

	targets := link.Targets()
	require.Len(t, targets, 2, "should create a target for each platform link")
	for _, target := range targets {
		assert.Nil(t, target.URL)
		assert.Empty(t, target.AppName)
		assert.Empty(t, target.AppStoreID)
	}
}

func TestBuildingLinkWithShouldFallback(t *testing.T) {
	dest := mustParse(t, "http://example.com/1234567890")
	withFallback := func(value string) *Node {
		return BuildALData([]MetaTag{
			{Property: "al:web:url", Content: "http://example.com/fallback", HasContent: true},
			{Property: "al:web:should_fallback", Content: value, HasContent: true},
		})
	}

	for _, v := range []string{"no", "false", "0"} {
		link := newResolver(t, applink.Phone).AppLinkFromALData(withFallback(v), dest)
		assert.Equal(t, dest.String(), link.SourceURL().String())
		assert.Nil(t, link.WebURL(), "fallback %q should disable the web url", v)
		assert.Empty(t, link.Targets())
	}
	for _, v := range []string{"yes", "true", "1"} {
		link := newResolver(t, applink.Phone).AppLinkFromALData(withFallback(v), dest)
		require.NotNil(t, link.WebURL())
		assert.Equal(t, "http://example.com/fallback", link.WebURL().String())
		assert.Empty(t, link.Targets())
	}
}

func TestParseALDataNesting(t *testing.T) {
	data, err := ParseALData([]byte(page))
	require.NoError(t, err)

	ios := data.Get("ios")
	require.Len(t, ios, 1)
	assert.Len(t, ios[0].Get("url"), 2)
	name, ok := ios[0].ValueAt("app_name", 0)
	assert.True(t, ok)
	assert.Equal(t, "Example", name)
	_, ok = ios[0].ValueAt("app_name", 1)
	assert.False(t, ok)
	assert.Empty(t, data.Get("og"))
}

func TestAppLinkResolvesOriginalDestination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/short" {
			http.Redirect(w, r, "/article", http.StatusMovedPermanently)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	dest := mustParse(t, srv.URL+"/short")
	link, err := newResolver(t, applink.Phone).AppLink(context.Background(), dest)
	require.NoError(t, err)

	assert.Equal(t, dest.String(), link.SourceURL().String())
	assert.Equal(t, "http://example.com/web", link.WebURL().String())

	targets := link.Targets()
	require.Len(t, targets, 3)
	assert.Equal(t, "111", targets[0].AppStoreID)
	assert.Equal(t, "Example iPhone", targets[0].AppName)
	assert.Equal(t, "example://things/1", targets[1].URL.String())
	assert.Equal(t, "123", targets[1].AppStoreID)
	assert.Equal(t, "example2://things/1", targets[2].URL.String())
	assert.Equal(t, "456", targets[2].AppStoreID)
	assert.Empty(t, targets[2].AppName)
}

func TestAppLinkWithoutMetaTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>plain</body></html>"))
	}))
	defer srv.Close()

	dest := mustParse(t, srv.URL)
	link, err := newResolver(t, applink.Pad).AppLink(context.Background(), dest)
	require.NoError(t, err)
	assert.Empty(t, link.Targets())
	assert.Equal(t, dest.String(), link.WebURL().String())
}
