package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/applinks/internal/utils"
	"github.com/sw33tLie/applinks/pkg/navigation"
	"github.com/sw33tLie/applinks/pkg/resolver"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `                        _ _       _        
	  __ _ _ __  _ __ | (_)_ __ | | _____ 
	 / _' | '_ \| '_ \| | | '_ \| |/ / __|
	| (_| | |_) | |_) | | | | | |   <\__ \
	 \__,_| .__/| .__/|_|_|_| |_|_|\_\___/
	      |_|   |_|                       

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "applinks",
	Short: "Resolve and follow App Links from your command line.",
	Long: LOGO + `applinks resolves App Link metadata for web URLs, either through the Graph API
index or by reading al: meta tags, and opens the best native target or the web fallback.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.applinks.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().StringP("resolver", "r", "auto", "App link resolver. Available: auto, graph, web")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite DB file used as persistent cache and event log")
	rootCmd.PersistentFlags().String("idiom", "", "Device idiom. Available: unspecified, phone, pad")

	viper.BindPFlag("proxy", rootCmd.PersistentFlags().Lookup("proxy"))
	viper.BindPFlag("db.path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("device.idiom", rootCmd.PersistentFlags().Lookup("idiom"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".applinks")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("applinks")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	setDefaults()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.applinks.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				utils.Log.Debugf("Could not create config file: %s", err)
			}
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

func setDefaults() {
	viper.SetDefault("graph.url", resolver.DEFAULT_GRAPH_URL)
	viper.SetDefault("graph.version", resolver.DEFAULT_GRAPH_VERSION)
	viper.SetDefault("graph.appid", "")
	viper.SetDefault("graph.clienttoken", "")
	viper.SetDefault("graph.accesstoken", "")
	viper.SetDefault("sdk.version", navigation.DefaultSDKVersion)
	viper.SetDefault("device.idiom", "unspecified")
	viper.SetDefault("http.retries", 0)
	viper.SetDefault("http.timeout", "30s")
	viper.SetDefault("opener.command", "xdg-open")
	viper.SetDefault("opener.schemes", []string{})
	viper.SetDefault("db.path", "")
}
