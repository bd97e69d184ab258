package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/milan604/permcatalog/pkg/config"
	"github.com/milan604/permcatalog/pkg/logger"
)

const (
	envPrefix  = "PERMCATALOG"
	configName = "permcatalog"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "permcatalog",
		Short:         "Browse and serve an API permission catalog",
		Long:          "permcatalog merges permission descriptions with provisioning metadata and serves them as a filterable catalog.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "path to a config file (yaml, json or toml)")
	root.PersistentFlags().String("sources.dir", "", "directory holding the source documents")
	root.PersistentFlags().String("sources.kind", "", "source kind: file or http")
	root.PersistentFlags().String("sources.base_url", "", "base URL of the source documents when kind is http")
	root.PersistentFlags().String("log.level", "", "log level")

	root.AddCommand(newServeCmd(), newQueryCmd(), newVersionCmd())
	return root
}

// loadConfig merges defaults, the config file, PERMCATALOG_* variables and
// flags, in increasing precedence. Without --config, permcatalog.{yaml,json,toml}
// is looked up in ., ./config and /etc/permcatalog.
func loadConfig(cmd *cobra.Command, extra ...config.Option) (*config.Config, config.Settings, error) {
	path, _ := cmd.Flags().GetString("config")
	fileOpt := config.WithFile(path)
	if path == "" {
		fileOpt = config.WithConfigNamePaths(configName)
	}
	opts := []config.Option{
		config.WithDefaults(config.Defaults()),
		fileOpt,
		config.WithEnv(envPrefix),
		config.WithPFlags(configFlags(cmd)),
		config.WithSensitiveKeys(config.SensitiveKeys()...),
	}
	cfg, err := config.New(append(opts, extra...)...)
	if err != nil {
		return nil, config.Settings{}, err
	}
	settings, err := cfg.Settings()
	if err != nil {
		return nil, config.Settings{}, err
	}
	return cfg, settings, nil
}

// configFlags selects the flags named after config keys, e.g. sources.dir.
func configFlags(cmd *cobra.Command) *pflag.FlagSet {
	fs := pflag.NewFlagSet(cmd.Name(), pflag.ContinueOnError)
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if strings.Contains(f.Name, ".") {
			fs.AddFlag(f)
		}
	})
	return fs
}

func newLogger(s config.LogSettings) (logger.LogManager, error) {
	log, err := logger.NewLogger(logger.LoggerOptions{Level: s.Level, Encoding: s.Encoding})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log, nil
}
