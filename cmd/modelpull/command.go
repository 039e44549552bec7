package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/clara-assistant/modelpull/pkg/configutils"
)

var configFilePath string
var debug bool

const envPrefix = "MODELPULL"

// CommandModule represents a subcommand that runs inside the fx framework.
type CommandModule interface {
	Name() string
	ShortDescription() string
	LongDescription() string
	FxModules() []fx.Option

	// ConfigureCommand lets modules add flags and argument handling.
	ConfigureCommand(*cobra.Command)

	// Start is the default action when the command runs.
	Start() error
}

// CreateCommand creates a cobra command for a command module.
func CreateCommand(module CommandModule) *cobra.Command {
	cmd := &cobra.Command{
		Use:   module.Name(),
		Short: module.ShortDescription(),
		Long:  module.LongDescription(),
	}

	cmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "", "path to config file")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")

	module.ConfigureCommand(cmd)

	return cmd
}

// runCommand runs a module's action inside an fx application.
func runCommand(cmd *cobra.Command, module CommandModule, action func() error) {
	options := []fx.Option{
		configProvider(cmd),
	}

	options = append(options, module.FxModules()...)

	options = append(options, fx.Invoke(func(lc fx.Lifecycle, l *zap.Logger, sh fx.Shutdowner) {
		lc.Append(
			fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						if err := action(); err != nil {
							l.Error(module.Name()+" encountered an error during execution", zap.Error(err))
							os.Exit(1)
						}
						if err := sh.Shutdown(); err != nil {
							l.Error("Failed to shutdown "+module.Name(), zap.Error(err))
						}
					}()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					return nil
				},
			})
	}))

	app := fx.New(fx.Options(options...))
	app.Run()
	if err := app.Stop(context.Background()); err != nil {
		return
	}
}

// configProvider sets up viper from environment, flags and the optional
// config file. Unlike long-running services, the CLI works without a config
// file: defaults plus environment are enough for ad-hoc use.
func configProvider(cli *cobra.Command) fx.Option {
	if configFilePath != "" {
		return configutils.ProvideViperFromFile(envPrefix, cli.Flags(), configFilePath)
	}

	return fx.Provide(func() (*viper.Viper, error) {
		v := viper.New()

		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		if err := v.BindPFlag("debug", cli.Flags().Lookup("debug")); err != nil {
			return nil, fmt.Errorf("can't bind debug flag: %w", err)
		}
		return v, nil
	})
}
