package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/applinks/pkg/applink"
	"github.com/sw33tLie/applinks/pkg/navigation"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <url>",
	Short: "Decode the al_applink_data carried by an incoming App Link URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := parseDestination(args[0])
		if err != nil {
			return err
		}
		in, err := applink.ParseInbound(u)
		if err != nil {
			return err
		}

		if in.TargetURL != nil {
			fmt.Printf("target: %s\n", in.TargetURL)
		}
		if len(in.Extras) > 0 {
			extras, _ := json.MarshalIndent(in.Extras, "", "  ")
			fmt.Printf("extras: %s\n", extras)
		}
		if in.Referer != nil {
			fmt.Println("referer:")
			printAppLink(in.Referer)
		}

		s, err := newSession(cmd, true)
		if err != nil {
			return err
		}
		defer s.Close()
		navigation.PostInboundEvent(s.deps.EventPoster, in)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
