package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sw33tLie/applinks/pkg/applink"
	"github.com/sw33tLie/applinks/pkg/navigation"
	"github.com/sw33tLie/applinks/pkg/opener"
	"github.com/sw33tLie/applinks/pkg/webresolver"
)

func main() {
	// Usage: go run *.go -url "https://example.com/some/page"

	urlFlag := flag.String("url", "", "URL to resolve")

	// Parse the command-line flags
	flag.Parse()

	dest := applink.ParseURL(*urlFlag)
	if dest == nil {
		fmt.Println("A valid absolute URL is required. Please provide it using -url flag.")
		return
	}

	// The Graph index resolver (pkg/resolver) works the same way, given credentials
	r, err := webresolver.New(nil, applink.Phone)
	if err != nil {
		fmt.Println(err)
		return
	}

	// Nothing is really opened: DryRun prints the URLs instead
	deps := navigation.Dependencies{
		URLOpener: opener.NewDryRun(os.Stdout, []string{"fb"}),
		Resolver:  r,
	}

	navType, err := navigation.NavigateToURL(context.Background(), dest, deps)
	fmt.Println(navType, err)
}
