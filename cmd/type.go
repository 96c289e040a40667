package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/applinks/pkg/navigation"
)

// typeCmd represents the type command
var typeCmd = &cobra.Command{
	Use:   "type <url>",
	Short: "Print what navigating to a URL would do, without opening anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dest, err := parseDestination(args[0])
		if err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		s, err := newSession(cmd, dryRun)
		if err != nil {
			return err
		}
		defer s.Close()

		link, err := navigation.ResolveAppLink(context.Background(), dest, s.resolver)
		if err != nil {
			return fmt.Errorf("could not resolve %s: %w", dest, err)
		}
		fmt.Println(navigation.TypeForAppLink(link, s.deps))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(typeCmd)
	typeCmd.Flags().Bool("dry-run", false, "Judge targets by configured schemes only, ignoring whether the opener command exists")
}
