package applink

import (
	"context"
	"net/url"
	"strings"
)

// Protocol keys used in the al_applink_data payload.
const (
	DataParameterName = "al_applink_data"
	UserAgentKey      = "user_agent"
	VersionKey        = "version"
	TargetKey         = "target_url"
	ExtrasKey         = "extras"
	RefererAppLinkKey = "referer_app_link"
	RefererAppNameKey = "app_name"
	RefererURLKey     = "url"

	// ProtocolVersion is the App Link protocol version sent when the caller didn't set one.
	ProtocolVersion = "1.0"
)

// Target is one candidate native app destination.
type Target struct {
	URL        *url.URL
	AppStoreID string
	AppName    string
}

// AppLink is resolved App Link metadata for one destination.
// Targets are kept in attempt order.
type AppLink struct {
	sourceURL        *url.URL
	targets          []Target
	webURL           *url.URL
	isBackToReferrer bool
}

// New builds an outbound AppLink.
func New(sourceURL *url.URL, targets []Target, webURL *url.URL) *AppLink {
	return newAppLink(sourceURL, targets, webURL, false)
}

// NewBackToReferrer builds an AppLink pointing back to the app that opened us.
func NewBackToReferrer(sourceURL *url.URL, targets []Target, webURL *url.URL) *AppLink {
	return newAppLink(sourceURL, targets, webURL, true)
}

func newAppLink(sourceURL *url.URL, targets []Target, webURL *url.URL, back bool) *AppLink {
	t := make([]Target, len(targets))
	copy(t, targets)
	return &AppLink{
		sourceURL:        cloneURL(sourceURL),
		targets:          t,
		webURL:           cloneURL(webURL),
		isBackToReferrer: back,
	}
}

func (a *AppLink) SourceURL() *url.URL { return cloneURL(a.sourceURL) }
func (a *AppLink) WebURL() *url.URL    { return cloneURL(a.webURL) }
func (a *AppLink) IsBackToReferrer() bool {
	return a.isBackToReferrer
}

// Targets returns a copy of the ordered targets.
func (a *AppLink) Targets() []Target {
	t := make([]Target, len(a.targets))
	copy(t, a.targets)
	return t
}

// Resolver turns a destination URL into App Link metadata.
type Resolver interface {
	AppLink(ctx context.Context, destination *url.URL) (*AppLink, error)
}

// ShouldFallback parses a should_fallback value. Only an explicit no/false/0 disables the fallback.
func ShouldFallback(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "no", "false", "0":
		return false
	}
	return true
}

// ParseURL parses raw the way resolvers treat target and fallback URLs:
// empty, relative-without-scheme or malformed input yields nil.
func ParseURL(raw string) *url.URL {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return nil
	}
	return u
}

func cloneURL(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	c := *u
	if u.User != nil {
		user := *u.User
		c.User = &user
	}
	return &c
}
