package main

import (
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/logger"
	"github.com/spf13/cobra"
)

// app carries the loaded configuration from the root command to its
// subcommands.
type app struct {
	configPath string
	dataDir    string
	maxFiles   int
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "retrieval",
		Short: "Boolean and TF-IDF retrieval over Meetup events",
		Long: "retrieval indexes a directory of Meetup event XML files and answers\n" +
			"boolean (AND/OR/NOT) and cosine-ranked free text queries. Every build\n" +
			"stage is cached by content fingerprint, so rebuilding an unchanged\n" +
			"corpus is cheap.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to YAML config file (default: built-in defaults)")
	cmd.PersistentFlags().StringVar(&a.dataDir, "data", "", "directory of event XML files (overrides engine.dataDir)")
	cmd.PersistentFlags().IntVar(&a.maxFiles, "max-files", 0, "maximum number of files to load, 0 for all (overrides engine.maxFiles)")

	cmd.AddCommand(
		newBuildCmd(a),
		newBooleanCmd(a),
		newVectorCmd(a),
		newPurgeCmd(a),
	)
	return cmd
}

// load reads the config file, applies flag overrides, validates the result
// and installs the logger. It runs before any corpus work, so bad settings
// fail fast.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Engine.DataDir = a.dataDir
	}
	if flags.Changed("max-files") {
		cfg.Engine.MaxFiles = a.maxFiles
	}
	for name, field := range map[string]*int{
		"max-features": &cfg.Engine.MaxFeatures,
		"top-k":        &cfg.Engine.TopK,
	} {
		if !flags.Changed(name) {
			continue
		}
		n, err := flags.GetInt(name)
		if err != nil {
			return err
		}
		*field = n
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	slog.Debug("configuration loaded",
		"config", a.configPath,
		"data_dir", cfg.Engine.DataDir,
		"cache_backend", cfg.Cache.Backend,
		"max_features", cfg.Engine.MaxFeatures,
	)
	a.cfg = cfg
	return nil
}
