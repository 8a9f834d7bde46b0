package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"pmdbsync/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `	                      _ _
	 _ __  _ __ ___   __| | |__  ___ _   _ _ __   ___
	| '_ \| '_ ` + "`" + ` _ \ / _` + "`" + ` | '_ \/ __| | | | '_ \ / __|
	| |_) | | | | | | (_| | |_) \__ \ |_| | | | | (__
	| .__/|_| |_| |_|\__,_|_.__/|___/\__, |_| |_|\___|
	|_|                              |___/

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pmdbsync",
	Short: "Reconcile movie/TV identifier mappings and ratings into PMDB.",
	Long: LOGO + `pmdbsync looks up a title on TMDB, collects ratings from OMDb, resolves the
TVDB series identifier, and submits the identifier mappings and ratings PMDB
is still missing. Run "pmdbsync sync" to start an interactive session.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
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
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pmdbsync.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
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
		viper.SetConfigName(".pmdbsync")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.pmdbsync.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("tmdb.api_key", "")
	viper.SetDefault("omdb.api_key", "")
	viper.SetDefault("tvdb.api_key", "")
	viper.SetDefault("pmdb.api_key", "")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}
