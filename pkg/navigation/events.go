package navigation

import (
	"net/url"

	"github.com/sw33tLie/applinks/pkg/applink"
)

const (
	NavigateOutEventName            = "al_nav_out"
	NavigateBackToReferrerEventName = "al_nav_back_to_referrer"
	InboundEventName                = "fb_al_inbound"
)

// Argument keys of navigation events.
const (
	OutputURLSchemeArg = "outputURLScheme"
	OutputURLArg       = "outputURL"
	SourceURLArg       = "sourceURL"
	SourceHostArg      = "sourceHost"
	SourceSchemeArg    = "sourceScheme"
	SuccessArg         = "success"
	TypeArg            = "type"
	ErrorArg           = "error"
)

// eventValues maps a Type to its success flag and type tag.
func eventValues(t Type) (string, string) {
	switch t {
	case App:
		return "1", "app"
	case Browser:
		return "1", "web"
	}
	return "0", "fail"
}

func (n *Navigation) postNavigateEvent(opened *url.URL, err error, t Type) {
	poster := n.deps.EventPoster
	if poster == nil {
		return
	}

	args := map[string]interface{}{}
	if opened != nil {
		setIfPresent(args, OutputURLSchemeArg, opened.Scheme)
		setIfPresent(args, OutputURLArg, opened.String())
	}

	name := NavigateOutEventName
	if n.appLink != nil {
		if src := n.appLink.SourceURL(); src != nil {
			setIfPresent(args, SourceURLArg, src.String())
			setIfPresent(args, SourceHostArg, src.Host)
			setIfPresent(args, SourceSchemeArg, src.Scheme)
		}
		if n.appLink.IsBackToReferrer() {
			name = NavigateBackToReferrerEventName
		}
	}
	if err != nil {
		args[ErrorArg] = err.Error()
	}

	args[SuccessArg], args[TypeArg] = eventValues(t)
	poster.PostNotification(name, args)
}

// PostInboundEvent reports that the app was opened with an App Link payload.
func PostInboundEvent(poster EventPoster, in *applink.Inbound) {
	if poster == nil || in == nil {
		return
	}

	args := map[string]interface{}{}
	if in.TargetURL != nil {
		setIfPresent(args, "targetURL", in.TargetURL.String())
		setIfPresent(args, "targetURLHost", in.TargetURL.Host)
	}
	setIfPresent(args, "referralTargetURL", in.ReferralTargetURL)
	setIfPresent(args, "referralURL", in.ReferralURL)
	setIfPresent(args, "referralAppName", in.ReferralAppName)
	if in.InputURL != nil {
		setIfPresent(args, "inputURL", in.InputURL.String())
		setIfPresent(args, "inputURLScheme", in.InputURL.Scheme)
	}
	poster.PostNotification(InboundEventName, args)
}

func setIfPresent(args map[string]interface{}, key, value string) {
	if value != "" {
		args[key] = value
	}
}
