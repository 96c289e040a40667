package cmd

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/sw33tLie/applinks/pkg/resolver"
	"github.com/sw33tLie/applinks/pkg/webresolver"
)

func resetConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	setDefaults()
	t.Cleanup(viper.Reset)
}

func TestNewResolverAutoSelection(t *testing.T) {
	resetConfig(t)

	r, err := newResolver("auto", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := r.(*webresolver.Resolver); !ok {
		t.Fatalf("expected the web resolver without credentials, got %T", r)
	}

	viper.Set("graph.accesstoken", "token")
	r, err = newResolver("", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := r.(*resolver.Resolver); !ok {
		t.Fatalf("expected the graph resolver with credentials, got %T", r)
	}
}

func TestNewResolverExplicit(t *testing.T) {
	resetConfig(t)

	if r, err := newResolver("GRAPH", nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	} else if _, ok := r.(*resolver.Resolver); !ok {
		t.Fatalf("expected the graph resolver, got %T", r)
	}
	if _, err := newResolver("carrier-pigeon", nil, nil); err == nil {
		t.Fatalf("expected an error for an unknown resolver")
	}

	viper.Set("device.idiom", "watch")
	if _, err := newResolver("web", nil, nil); err == nil {
		t.Fatalf("expected an error for an unknown idiom")
	}
}

func TestParseDestination(t *testing.T) {
	if _, err := parseDestination(" https://example.com/path "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, bad := range []string{"", "example.com", "://nope"} {
		if _, err := parseDestination(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}
