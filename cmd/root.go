package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sanduskycurrent/scanner-stream/cmd/realtime"
	"github.com/sanduskycurrent/scanner-stream/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "scanner-stream",
		Short: "Scanner transmission pipeline CLI",
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(realtime.Command(settings))

	return rootCmd
}

// setupFlags defines global flags, bound to viper so command-line
// arguments take precedence over the config file.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.WebServer.Port, "port", "p", viper.GetString("webserver.port"), "Port for the web server")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("webserver.port", rootCmd.PersistentFlags().Lookup("port"))
}
