package main

import (
	"os"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/aleister1102/pagewatch/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// appFlags are the persistent flags shared by every subcommand.
type appFlags struct {
	configFile  string
	targetsFile string
}

func newRootCmd() *cobra.Command {
	flags := &appFlags{}
	root := &cobra.Command{
		Use:           "pagewatch",
		Short:         "Detect changes in web pages and other resources",
		Long:          "pagewatch fetches each configured resource, fingerprints its normalized content and reports what changed since the previous run.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "path to the YAML/JSON config file (default: search PAGEWATCH_CONFIG_PATH, ./config.yaml, ./config.json)")
	root.PersistentFlags().StringVarP(&flags.targetsFile, "targets", "t", "", "text file with one extra resource (URL or name) per line")

	root.AddCommand(
		newRunCmd(flags),
		newWatchCmd(flags),
		newHistoryCmd(flags),
		newStoreCmd(flags),
		newInitCmd(),
	)
	return root
}

// app is the loaded configuration plus the logger built from it.
type app struct {
	manager *config.Manager
	logger  zerolog.Logger
}

func (a *app) config() *config.GlobalConfig {
	return a.manager.GetConfig()
}

func (a *app) close() {
	if err := a.manager.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to close config manager")
	}
}

// loadApp reads the config once to build the logger, then hands the file to
// a config.Manager that merges targets and validates.
func loadApp(flags *appFlags, hotReload bool) (*app, error) {
	bootstrap := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(zerolog.WarnLevel)

	initial, err := config.LoadGlobalConfig(flags.configFile, bootstrap)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(initial.LogConfig)
	if err != nil {
		return nil, common.WrapError(err, "failed to initialize logger")
	}

	var targets []string
	if flags.targetsFile != "" {
		targets, err = common.NewFileManager(log).ReadLines(flags.targetsFile)
		if err != nil {
			return nil, common.WrapError(err, "failed to read targets file")
		}
		log.Info().Str("path", flags.targetsFile).Int("targets", len(targets)).Msg("Loaded targets file")
	}

	opts := config.DefaultManagerOptions()
	opts.Logger = log
	opts.HotReloadEnabled = hotReload
	opts.Targets = targets
	manager, err := config.NewManager(flags.configFile, opts)
	if err != nil {
		return nil, err
	}
	return &app{manager: manager, logger: log}, nil
}
