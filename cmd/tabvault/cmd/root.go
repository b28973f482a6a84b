package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tabvault/tabvault"
	"github.com/tabvault/tabvault/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "tabvault",
	Short: "Dataset discovery over content-addressed snapshots",
	Long:  "CLI for exploring tabular datasets inside content-addressed repositories and syncing them with OCI registries.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ~/.config/tabvault/config.yaml)")
	rootCmd.PersistentFlags().String("repo", "", "repository directory (default: ~/.local/share/tabvault)")
	rootCmd.PersistentFlags().String("remote", "", "OCI image ref used by push and pull")
	rootCmd.PersistentFlags().String("log-level", "", "log level: info, debug or none")

	viper.BindPFlag("repo", rootCmd.PersistentFlags().Lookup("repo"))
	viper.BindPFlag("remote", rootCmd.PersistentFlags().Lookup("remote"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfg := rootCmd.PersistentFlags().Lookup("config").Value.String(); cfg != "" {
		viper.SetConfigFile(cfg)
	} else {
		viper.AddConfigPath(configDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("TABVAULT")
	viper.AutomaticEnv()
	viper.SetDefault("repo", defaultRepoDir())
	viper.SetDefault("log_level", logging.LevelNone)

	viper.ReadInConfig()
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tabvault")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "tabvault")
	}
	return ".tabvault"
}

func defaultRepoDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "tabvault")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "tabvault")
	}
	return ".tabvault"
}

// openRepo opens the configured repository, wiring in the remote and
// logger when set.
func openRepo() (*tabvault.Repo, error) {
	opts := []tabvault.OpenOption{
		tabvault.WithLogger(logging.MustNew(viper.GetString("log_level"))),
	}
	if remote := viper.GetString("remote"); remote != "" {
		opts = append(opts, tabvault.WithRemote(remote))
	}
	return tabvault.Open(viper.GetString("repo"), opts...)
}
