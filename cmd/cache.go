package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sw33tLie/applinks/internal/utils"
	"github.com/sw33tLie/applinks/pkg/storage"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the persistent App Link cache",
}

// cacheListCmd represents the cache list command
var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached App Links",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDBForRead()
		if err != nil {
			return err
		}
		defer db.Close()

		cached, err := db.ListCached(context.Background())
		if err != nil {
			return err
		}
		if len(cached) == 0 {
			fmt.Println("The cache is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "URL\tTARGETS\tWEB\tRESOLVED AT\t")
		for _, c := range cached {
			web := "-"
			if u := c.Link.WebURL(); u != nil {
				web = u.String()
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t\n", c.Key, len(c.Link.Targets()), web, c.ResolvedAt.Local().Format("2006-01-02 15:04:05"))
		}
		w.Flush()
		return nil
	},
}

// cacheClearCmd represents the cache clear command
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached App Link",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, lock, err := openLockedDB(viper.GetString("db.path"))
		if err != nil {
			return err
		}
		defer lock.Unlock()
		defer db.Close()

		n, err := db.ClearCache(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d cached app links.\n", n)
		return nil
	},
}

// openDBForRead opens the configured database, or the default one, without locking.
func openDBForRead() (*storage.DB, error) {
	absPath, err := utils.GetAbsDBPath(viper.GetString("db.path"))
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database file not found: %s", absPath)
	}
	return storage.Open(absPath)
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
