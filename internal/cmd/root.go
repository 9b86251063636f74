package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/taskclaim/taskclaim/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "taskclaim",
	Short: "Multi-session task claiming for a shared local task store",
	Long: `Taskclaim coordinates multiple work sessions over one shared task
store. A session claims a scope of tasks, focuses on one of them, and can
be suspended and resumed; conflicting claims between sessions are detected
and blocked before anything is written.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/taskclaim/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "data directory holding the documents (default \".taskclaim\")")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("TASKCLAIM")
	// Replace dots with underscores for nested keys in env vars
	// e.g., TASKCLAIM_LOCK_TIMEOUT_MS for lock.timeout_ms
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
