package applink

import (
	"errors"
	"net/url"

	"github.com/tidwall/gjson"
)

var ErrNoAppLinkData = errors.New("url carries no valid al_applink_data")

// Inbound is the App Link payload found on a URL this app was opened with.
type Inbound struct {
	InputURL    *url.URL
	TargetURL   *url.URL
	Extras      map[string]interface{}
	AppLinkData map[string]interface{}

	// Referer is set when the opener sent a referer_app_link; navigating it goes back.
	Referer *AppLink

	// Raw referer_data values, if the sender included them.
	ReferralTargetURL string
	ReferralURL       string
	ReferralAppName   string
}

// ParseInbound decodes the al_applink_data query parameter of u.
func ParseInbound(u *url.URL) (*Inbound, error) {
	if u == nil {
		return nil, ErrNoAppLinkData
	}
	raw := u.Query().Get(DataParameterName)
	if raw == "" || !gjson.Valid(raw) {
		return nil, ErrNoAppLinkData
	}
	data := gjson.Parse(raw)
	if !data.IsObject() {
		return nil, ErrNoAppLinkData
	}

	in := &Inbound{InputURL: cloneURL(u)}
	in.AppLinkData, _ = data.Value().(map[string]interface{})

	if t := data.Get(TargetKey); t.Type == gjson.String {
		in.TargetURL = ParseURL(t.Str)
	}
	if ex := data.Get(ExtrasKey); ex.IsObject() {
		in.Extras, _ = ex.Value().(map[string]interface{})
	}

	if ref := data.Get(RefererAppLinkKey); ref.IsObject() {
		refURL := ParseURL(ref.Get(RefererURLKey).String())
		in.Referer = NewBackToReferrer(refURL, []Target{{
			URL:     refURL,
			AppName: ref.Get(RefererAppNameKey).String(),
		}}, nil)
	}

	if rd := data.Get("referer_data"); rd.IsObject() {
		in.ReferralTargetURL = rd.Get(TargetKey).String()
		in.ReferralURL = rd.Get("url").String()
		in.ReferralAppName = rd.Get("app_name").String()
	}
	return in, nil
}
