package navigation

import (
	"context"
	"net/url"

	"github.com/sw33tLie/applinks/pkg/applink"
)

// ResolveAppLink resolves destination with resolver.
func ResolveAppLink(ctx context.Context, destination *url.URL, resolver applink.Resolver) (*applink.AppLink, error) {
	if resolver == nil {
		return nil, ErrNoResolver
	}
	return resolver.AppLink(ctx, destination)
}

// NavigateToAppLink navigates to link with no extras or app link data.
func NavigateToAppLink(ctx context.Context, link *applink.AppLink, deps Dependencies) (Type, error) {
	return New(link, nil, nil, deps).Navigate(ctx)
}

// TypeForAppLink is the side effect free variant of NavigateToAppLink.
func TypeForAppLink(link *applink.AppLink, deps Dependencies) Type {
	return New(link, nil, nil, deps).Type()
}

// NavigateToURL resolves destination through deps.Resolver and navigates to the result.
func NavigateToURL(ctx context.Context, destination *url.URL, deps Dependencies) (Type, error) {
	link, err := ResolveAppLink(ctx, destination, deps.Resolver)
	if err != nil {
		return Failure, err
	}
	if link == nil {
		return Failure, ErrNoAppLink
	}
	return NavigateToAppLink(ctx, link, deps)
}
