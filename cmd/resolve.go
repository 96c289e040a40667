package cmd

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/sw33tLie/applinks/internal/utils"
	"github.com/sw33tLie/applinks/pkg/resolver"
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <url>...",
	Short: "Resolve App Link metadata for one or more URLs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var urls []*url.URL
		for _, a := range args {
			u, err := parseDestination(a)
			if err != nil {
				return err
			}
			urls = append(urls, u)
		}

		s, err := newSession(cmd, true)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()

		// The Graph index answers a whole batch in one request.
		if graph, ok := s.resolver.(*resolver.Resolver); ok {
			links, err := graph.AppLinks(ctx, urls)
			if err != nil {
				return err
			}
			for _, u := range urls {
				fmt.Println(u)
				printAppLink(links[u.String()])
			}
			return nil
		}

		var problems error
		for _, u := range urls {
			fmt.Println(u)
			link, err := s.resolver.AppLink(ctx, u)
			if err != nil {
				utils.Log.Debugf("Could not resolve %s: %v", u, err)
				fmt.Println("  error:", err)
				problems = multierror.Append(problems, fmt.Errorf("%s: %w", u, err))
				continue
			}
			printAppLink(link)
		}
		return problems
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
