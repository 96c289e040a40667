package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sw33tLie/applinks/pkg/applink"
	"github.com/sw33tLie/applinks/pkg/whttp"
)

const (
	appLinkURL  = "http://example.com/1234567890"
	appLinkURL2 = "http://example.com/0987654321"
	fallbackURL = "http://www.example.com/somethingelse"
)

type indexServer struct {
	*httptest.Server
	calls   int32
	lastURL *url.URL
}

func newIndexServer(t *testing.T, status int, body string) *indexServer {
	t.Helper()
	s := &indexServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.calls, 1)
		s.lastURL = r.URL
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

func newTestResolver(t *testing.T, srv *indexServer, idiom applink.Idiom, cache Cache) *Resolver {
	t.Helper()
	client, err := whttp.NewClient(whttp.ClientOptions{})
	require.NoError(t, err)
	r, err := New(&RequestBuilder{
		GraphURL: srv.URL,
		Idiom:    idiom,
		Tokens:   Tokens{AppID: "123", ClientToken: "clienttoken"},
	}, client, cache)
	require.NoError(t, err)
	return r
}

func parse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestResolvingSingleTargetOnPhone(t *testing.T) {
	srv := newIndexServer(t, 200, `{"http://example.com/1234567890": {"app_links": {"iphone": [{"app_name":"Example","app_store_id":"123","url":"example://things/1234567890"}]}, "id": "http://example.com/1234567890"}}`)
	r := newTestResolver(t, srv, applink.Phone, nil)

	link, err := r.AppLink(context.Background(), parse(t, appLinkURL))
	require.NoError(t, err)
	require.NotNil(t, link)

	targets := link.Targets()
	require.Len(t, targets, 1)
	assert.Equal(t, "123", targets[0].AppStoreID)
	assert.Equal(t, "Example", targets[0].AppName)
	assert.Equal(t, "example://things/1234567890", targets[0].URL.String())
	assert.Equal(t, appLinkURL, link.SourceURL().String())
}

func TestResolvingPrefersIdiomField(t *testing.T) {
	body := `{"http://example.com/1234567890": {"app_links": {
		"ios": [{"app_name":"Example","app_store_id":"123","url":"example://things/1234567890"}],
		"%s": [{"app_name":"Example","app_store_id":"456","url":"example://things/1234567890"}],
		"android": [{"app_name":"Example","package":"com.example.app","url":"example://things/1234567890"}]
	}, "id": "http://example.com/1234567890"}}`

	for idiom, field := range map[applink.Idiom]string{applink.Phone: "iphone", applink.Pad: "ipad"} {
		srv := newIndexServer(t, 200, strings.Replace(body, "%s", field, 1))
		r := newTestResolver(t, srv, idiom, nil)

		link, err := r.AppLink(context.Background(), parse(t, appLinkURL))
		require.NoError(t, err)

		targets := link.Targets()
		require.Len(t, targets, 2, "android entries must be ignored")
		assert.Equal(t, "456", targets[0].AppStoreID)
		assert.Equal(t, "123", targets[1].AppStoreID)

		assert.Contains(t, srv.lastURL.Query().Get("fields"), field)
		assert.Equal(t, "123|clienttoken", srv.lastURL.Query().Get("access_token"))
	}
}

func TestResolvingWithoutTargetsDefaultsFallback(t *testing.T) {
	srv := newIndexServer(t, 200, `{"http://example.com/1234567890": {"id": "http://example.com/1234567890"}}`)
	r := newTestResolver(t, srv, applink.Pad, nil)

	link, err := r.AppLink(context.Background(), parse(t, appLinkURL))
	require.NoError(t, err)
	assert.Empty(t, link.Targets())
	require.NotNil(t, link.WebURL())
	assert.Equal(t, appLinkURL, link.WebURL().String())
}

func TestResolvingWebFallback(t *testing.T) {
	cases := []struct {
		name string
		web  string
		want string
	}{
		{"explicit url", `{"url":"` + fallbackURL + `","should_fallback":true}`, fallbackURL},
		{"source as fallback", `{"should_fallback":true}`, appLinkURL},
		{"boolean opt out", `{"url":"` + fallbackURL + `","should_fallback":false}`, ""},
		{"string false", `{"should_fallback":"false"}`, ""},
		{"string no", `{"should_fallback":"no","ios":[{"url":"example://x"}]}`, ""},
		{"string zero", `{"should_fallback":"0"}`, ""},
		{"string yes", `{"url":"` + fallbackURL + `","should_fallback":"yes"}`, fallbackURL},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newIndexServer(t, 200, `{"http://example.com/1234567890": {"app_links": {"web": `+tc.web+`}, "id": "http://example.com/1234567890"}}`)
			r := newTestResolver(t, srv, applink.Phone, nil)

			link, err := r.AppLink(context.Background(), parse(t, appLinkURL))
			require.NoError(t, err)
			assert.Empty(t, link.Targets())
			if tc.want == "" {
				assert.Nil(t, link.WebURL())
				return
			}
			require.NotNil(t, link.WebURL())
			assert.Equal(t, tc.want, link.WebURL().String())
		})
	}
}

func TestResolvingMultipleURLs(t *testing.T) {
	srv := newIndexServer(t, 200, `{
		"http://example.com/1234567890": {"id": "http://example.com/1234567890"},
		"http://example.com/0987654321": {"id": "http://example.com/0987654321"}
	}`)
	r := newTestResolver(t, srv, applink.Pad, nil)

	links, err := r.AppLinks(context.Background(), []*url.URL{parse(t, appLinkURL), parse(t, appLinkURL2)})
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, appLinkURL, links[appLinkURL].SourceURL().String())
	assert.Equal(t, appLinkURL2, links[appLinkURL2].SourceURL().String())
	assert.Equal(t, appLinkURL+","+appLinkURL2, srv.lastURL.Query().Get("ids"))
}

func TestResolvingWithNetworkError(t *testing.T) {
	srv := newIndexServer(t, 200, `{}`)
	r := newTestResolver(t, srv, applink.Phone, nil)
	srv.Close()

	link, err := r.AppLink(context.Background(), parse(t, appLinkURL))
	assert.Error(t, err)
	assert.Nil(t, link)
}

func TestResolvingWithGraphError(t *testing.T) {
	srv := newIndexServer(t, 400, `{"error":{"message":"Invalid OAuth access token."}}`)
	r := newTestResolver(t, srv, applink.Phone, nil)

	_, err := r.AppLink(context.Background(), parse(t, appLinkURL))
	var gerr *GraphError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, 400, gerr.StatusCode)
	assert.Equal(t, "Invalid OAuth access token.", gerr.Message)
}

func TestResolvingWithMalformedBody(t *testing.T) {
	srv := newIndexServer(t, 200, `not json`)
	r := newTestResolver(t, srv, applink.Phone, nil)

	_, err := r.AppLink(context.Background(), parse(t, appLinkURL))
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestReadsFromCache(t *testing.T) {
	srv := newIndexServer(t, 200, `{}`)
	cache := NewMemoryCache()
	cached := applink.New(parse(t, appLinkURL), nil, nil)
	require.NoError(t, cache.Put(context.Background(), appLinkURL, cached))
	r := newTestResolver(t, srv, applink.Phone, cache)

	for i := 0; i < 2; i++ {
		link, err := r.AppLink(context.Background(), parse(t, appLinkURL))
		require.NoError(t, err)
		assert.Same(t, cached, link)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&srv.calls))
}

func TestSetsCacheAndSkipsSecondRequest(t *testing.T) {
	srv := newIndexServer(t, 200, `{"http://example.com/1234567890": {"id": "http://example.com/1234567890"}}`)
	cache := NewMemoryCache()
	r := newTestResolver(t, srv, applink.Phone, cache)

	first, err := r.AppLink(context.Background(), parse(t, appLinkURL))
	require.NoError(t, err)
	second, err := r.AppLink(context.Background(), parse(t, appLinkURL))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, int32(1), atomic.LoadInt32(&srv.calls))
}

func TestBatchOnlyRequestsMissingURLs(t *testing.T) {
	srv := newIndexServer(t, 200, `{"http://example.com/0987654321": {"id": "http://example.com/0987654321"}}`)
	cache := NewMemoryCache()
	require.NoError(t, cache.Put(context.Background(), appLinkURL, applink.New(parse(t, appLinkURL), nil, nil)))
	r := newTestResolver(t, srv, applink.Phone, cache)

	links, err := r.AppLinks(context.Background(), []*url.URL{parse(t, appLinkURL), parse(t, appLinkURL2)})
	require.NoError(t, err)
	assert.Len(t, links, 2)
	assert.Equal(t, appLinkURL2, srv.lastURL.Query().Get("ids"))
}

func TestRequestBuilder(t *testing.T) {
	b := &RequestBuilder{Idiom: applink.Phone, Tokens: Tokens{AccessToken: "user-token", AppID: "1", ClientToken: "c"}}
	assert.Equal(t, "iphone", b.IdiomSpecificField())

	u := parse(t, b.URL([]*url.URL{parse(t, appLinkURL)}))
	assert.Equal(t, "graph.facebook.com", u.Host)
	assert.Equal(t, "/"+DEFAULT_GRAPH_VERSION+"/", u.Path)
	assert.Equal(t, "app_links.fields(iphone,ios,web)", u.Query().Get("fields"))
	assert.Equal(t, "user-token", u.Query().Get("access_token"))

	b = &RequestBuilder{}
	assert.Equal(t, "", b.IdiomSpecificField())
	u = parse(t, b.URL(nil))
	assert.Equal(t, "app_links.fields(ios,web)", u.Query().Get("fields"))
	assert.False(t, u.Query().Has("access_token"))
}
