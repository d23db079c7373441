package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dbxkit/dropbox/internal/version"
	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	home, _        = os.UserHomeDir()
	configFileName = "config"
)

var (
	red   = color.New(color.FgHiRed, color.Bold).SprintFunc()
	green = color.New(color.FgHiGreen).SprintFunc()
	cyan  = color.New(color.FgHiCyan).SprintFunc()
	gray  = color.New(color.FgHiBlack).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:           "dbx",
	Short:         "Dropbox toolkit CLI",
	Version:       version.Detailed(),
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().SortFlags = false
	rootCmd.PersistentFlags().StringP("config", "c", defaultConfigPath(), "dbx config file")
	rootCmd.PersistentFlags().String("app-key", "", "Dropbox app key")
	rootCmd.PersistentFlags().String("access-token", "", "Dropbox access token")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")
}

func defaultConfigPath() string {
	return filepath.Join(home, ".config", "dbx", configFileName+".json")
}

func main() {
	level := &slog.LevelVar{}
	level.Set(slog.LevelInfo)
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	slog.SetDefault(slog.New(handler))
	logLevel = level

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", red("ERROR"), err)
		os.Exit(1)
	}
}

// logLevel is flipped to debug by the --verbose flag after flag parsing.
var logLevel *slog.LevelVar

func loadConfig(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	if flags.Changed("config") {
		configFilePath, _ := flags.GetString("config")
		viper.SetConfigFile(configFilePath)
	} else {
		viper.AddConfigPath(filepath.Join(home, ".config", "dbx"))
		viper.AddConfigPath(filepath.Join(home, ".dbx"))
		viper.SetConfigName(configFileName)
		viper.SetConfigType("json")
	}

	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	}

	viper.BindPFlag("app_key", flags.Lookup("app-key"))
	viper.BindPFlag("access_token", flags.Lookup("access-token"))

	viper.SetEnvPrefix("DBX")
	viper.AutomaticEnv()

	if v, _ := flags.GetBool("verbose"); v && logLevel != nil {
		logLevel.Set(slog.LevelDebug)
	}

	return nil
}
