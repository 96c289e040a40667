// Package navigation opens App Links: it tries each target of a link in
// order, falls back to the link's web URL and reports what happened.
package navigation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/sw33tLie/applinks/internal/utils"
	"github.com/sw33tLie/applinks/pkg/applink"
)

// MaxDepth caps how many targets a single navigation will try.
const MaxDepth = 32

// Type is the outcome of a navigation.
type Type int

const (
	Failure Type = iota
	Browser
	App
)

func (t Type) String() string {
	switch t {
	case App:
		return "app"
	case Browser:
		return "browser"
	}
	return "failure"
}

var (
	ErrInvalidJSON = errors.New("JSON object not valid")
	ErrNoAppLink   = errors.New("no app link to navigate to")
	ErrNoTargetURL = errors.New("app link target has no url")
	ErrNoURLOpener = errors.New("no url opener configured")
	ErrNoResolver  = errors.New("no app link resolver configured")
)

// Navigation is a single navigation attempt. It is not safe for concurrent use.
type Navigation struct {
	appLink     *applink.AppLink
	extras      map[string]interface{}
	appLinkData map[string]interface{}
	deps        Dependencies

	lastErr error
}

// New prepares a navigation. A nil link is allowed and always fails.
func New(link *applink.AppLink, extras, appLinkData map[string]interface{}, deps Dependencies) *Navigation {
	return &Navigation{
		appLink:     link,
		extras:      extras,
		appLinkData: appLinkData,
		deps:        deps,
	}
}

func (n *Navigation) AppLink() *applink.AppLink { return n.appLink }

// Navigate tries every target in order, then the web fallback, and posts one
// event. The returned error is the most recent one met along the way, so it
// can be set even when a later target or the browser succeeded.
func (n *Navigation) Navigate(ctx context.Context) (Type, error) {
	if n.deps.URLOpener == nil {
		return Failure, ErrNoURLOpener
	}
	n.lastErr = nil

	if n.appLink == nil {
		n.lastErr = ErrNoAppLink
		return n.finish(nil, Failure)
	}

	targets := n.appLink.Targets()
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			n.lastErr = err
			return n.finish(nil, Failure)
		}
		if i >= len(targets) || i >= MaxDepth {
			break
		}
		if opened := n.tryTarget(ctx, i, targets[i]); opened != nil {
			return n.finish(opened, App)
		}
	}
	return n.fallBack(ctx)
}

// tryTarget returns the opened URL, or nil after recording why it couldn't.
func (n *Navigation) tryTarget(ctx context.Context, i int, target applink.Target) *url.URL {
	if target.URL == nil {
		n.lastErr = ErrNoTargetURL
		return nil
	}
	u, err := n.AppLinkURL(target.URL)
	if err != nil {
		n.lastErr = err
		return nil
	}

	ok, err := n.deps.URLOpener.Open(ctx, u)
	if err != nil {
		n.lastErr = err
	}
	if !ok {
		utils.Log.Debugf("Target %d (%s) could not be opened", i, target.URL)
		return nil
	}
	return u
}

// fallBack reports Browser as soon as an open is issued, whatever the opener answers.
func (n *Navigation) fallBack(ctx context.Context) (Type, error) {
	web := n.appLink.WebURL()
	if web == nil {
		return n.finish(nil, Failure)
	}
	u, err := n.AppLinkURL(web)
	if err != nil {
		n.lastErr = err
		return n.finish(nil, Failure)
	}
	if !n.deps.URLOpener.CanOpen(u) {
		return n.finish(nil, Failure)
	}

	ok, err := n.deps.URLOpener.Open(ctx, u)
	if err != nil {
		n.lastErr = err
	}
	if !ok {
		utils.Log.Debugf("Browser fallback %s reported a failed open", web)
	}
	return n.finish(u, Browser)
}

func (n *Navigation) finish(opened *url.URL, t Type) (Type, error) {
	n.postNavigateEvent(opened, n.lastErr, t)
	return t, n.lastErr
}

// Type predicts the outcome of Navigate without opening anything.
func (n *Navigation) Type() Type {
	opener := n.deps.URLOpener
	if opener == nil || n.appLink == nil {
		return Failure
	}

	targets := n.appLink.Targets()
	for i := 0; i < len(targets) && i < MaxDepth; i++ {
		t := targets[i]
		if t.URL == nil || !opener.CanOpen(t.URL) {
			continue
		}
		if _, err := n.AppLinkURL(t.URL); err == nil {
			return App
		}
	}

	if web := n.appLink.WebURL(); web != nil {
		if _, err := n.AppLinkURL(web); err == nil {
			return Browser
		}
	}
	return Failure
}

// AppLinkURL appends the al_applink_data payload to target.
func (n *Navigation) AppLinkURL(target *url.URL) (*url.URL, error) {
	data := make(map[string]interface{}, len(n.appLinkData)+4)
	for k, v := range n.appLinkData {
		data[k] = v
	}

	if _, ok := data[applink.UserAgentKey]; !ok {
		data[applink.UserAgentKey] = "FBSDK " + n.deps.sdkVersion()
	}
	if _, ok := data[applink.VersionKey]; !ok {
		data[applink.VersionKey] = applink.ProtocolVersion
	}
	if n.appLink != nil {
		if src := n.appLink.SourceURL(); src != nil {
			data[applink.TargetKey] = src.String()
		}
	}
	extras := n.extras
	if extras == nil {
		extras = map[string]interface{}{}
	}
	data[applink.ExtrasKey] = extras

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	sep := "?"
	switch {
	case target.RawQuery != "":
		sep = "&"
	case target.ForceQuery:
		sep = ""
	}
	return url.Parse(target.String() + sep + applink.DataParameterName + "=" + url.QueryEscape(string(payload)))
}

// CallbackAppLinkData is the appLinkData a caller passes so the target app can link back.
func CallbackAppLinkData(appName, appURL string) map[string]interface{} {
	return map[string]interface{}{
		applink.RefererAppLinkKey: map[string]interface{}{
			applink.RefererAppNameKey: appName,
			applink.RefererURLKey:     appURL,
		},
	}
}
