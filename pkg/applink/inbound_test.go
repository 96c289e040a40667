package applink

import (
	"net/url"
	"testing"
)

func TestParseInbound(t *testing.T) {
	payload := `{"target_url":"http://example.com/1234567890","extras":{"campaign":"spring"},` +
		`"referer_app_link":{"app_name":"Referrer","url":"referrer://back"},"version":"1.0"}`
	u := mustURL(t, "example://things/1?"+DataParameterName+"="+url.QueryEscape(payload))

	in, err := ParseInbound(u)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.TargetURL == nil || in.TargetURL.String() != "http://example.com/1234567890" {
		t.Fatalf("unexpected target url %v", in.TargetURL)
	}
	if in.Extras["campaign"] != "spring" {
		t.Fatalf("unexpected extras %#v", in.Extras)
	}
	if in.AppLinkData["version"] != "1.0" {
		t.Fatalf("unexpected app link data %#v", in.AppLinkData)
	}
	if in.Referer == nil || !in.Referer.IsBackToReferrer() {
		t.Fatalf("expected a back-to-referrer link")
	}
	targets := in.Referer.Targets()
	if len(targets) != 1 || targets[0].AppName != "Referrer" || targets[0].URL.String() != "referrer://back" {
		t.Fatalf("unexpected referer targets %#v", targets)
	}
	if in.Referer.WebURL() != nil {
		t.Fatalf("referer link should not fall back to the web")
	}
}

func TestParseInboundRejectsBadPayloads(t *testing.T) {
	for _, raw := range []string{
		"example://things/1",
		"example://things/1?al_applink_data=notjson",
		"example://things/1?al_applink_data=%5B1%2C2%5D",
	} {
		if _, err := ParseInbound(mustURL(t, raw)); err != ErrNoAppLinkData {
			t.Fatalf("%s: expected ErrNoAppLinkData, got %v", raw, err)
		}
	}
	if _, err := ParseInbound(nil); err != ErrNoAppLinkData {
		t.Fatalf("expected ErrNoAppLinkData for nil url")
	}
}
