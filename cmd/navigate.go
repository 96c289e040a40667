package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/applinks/internal/utils"
	"github.com/sw33tLie/applinks/pkg/navigation"
)

// navigateCmd represents the navigate command
var navigateCmd = &cobra.Command{
	Use:   "navigate <url>",
	Short: "Resolve a URL and open its best App Link target or web fallback",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dest, err := parseDestination(args[0])
		if err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		extras, _ := cmd.Flags().GetStringSlice("extras")
		refererApp, _ := cmd.Flags().GetString("referer-app")
		refererURL, _ := cmd.Flags().GetString("referer-url")

		s, err := newSession(cmd, dryRun)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		link, err := navigation.ResolveAppLink(ctx, dest, s.resolver)
		if err != nil {
			return fmt.Errorf("could not resolve %s: %w", dest, err)
		}

		var appLinkData map[string]interface{}
		if refererApp != "" || refererURL != "" {
			appLinkData = navigation.CallbackAppLinkData(refererApp, refererURL)
		}

		nav := navigation.New(link, utils.ParseKeyValues(extras), appLinkData, s.deps)
		navType, err := nav.Navigate(ctx)
		fmt.Println(navType)

		switch {
		case navType == navigation.Failure && err != nil:
			return err
		case navType == navigation.Failure:
			return errors.New("no target or web fallback could be opened")
		case err != nil:
			utils.Log.Debugf("Navigation succeeded after an earlier error: %v", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(navigateCmd)
	navigateCmd.Flags().StringSliceP("extras", "e", nil, "Extras passed to the target app (key=value, repeatable)")
	navigateCmd.Flags().Bool("dry-run", false, "Print the URLs that would be opened instead of opening them")
	navigateCmd.Flags().String("referer-app", "", "Name of the app the target can link back to")
	navigateCmd.Flags().String("referer-url", "", "URL the target app can use to link back")
}
