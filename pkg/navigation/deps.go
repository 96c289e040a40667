package navigation

import (
	"context"
	"net/url"

	"github.com/sw33tLie/applinks/pkg/applink"
)

// DefaultSDKVersion is reported in user_agent when no Settings are configured.
const DefaultSDKVersion = "17.3.0"

// URLOpener hands URLs to whatever can launch them.
type URLOpener interface {
	CanOpen(u *url.URL) bool
	// Open blocks until the opener knows whether u was opened.
	Open(ctx context.Context, u *url.URL) (bool, error)
}

// EventPoster receives diagnostic events. Posting is fire and forget.
type EventPoster interface {
	PostNotification(eventName string, args map[string]interface{})
}

type Settings interface {
	SDKVersion() string
}

// StaticSettings is a fixed SDK version string.
type StaticSettings string

func (s StaticSettings) SDKVersion() string { return string(s) }

// Dependencies are the collaborators a Navigation talks to.
type Dependencies struct {
	Settings    Settings
	URLOpener   URLOpener
	EventPoster EventPoster
	Resolver    applink.Resolver
}

func (d Dependencies) sdkVersion() string {
	if d.Settings == nil {
		return DefaultSDKVersion
	}
	return d.Settings.SDKVersion()
}
