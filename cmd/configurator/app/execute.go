package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the CLI with args.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.createRootCommand()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	return root.ExecuteContext(ctx)
}

func (a *App) createRootCommand() *cobra.Command {
	flags := &Flags{}
	var configFile string

	root := &cobra.Command{
		Use:     "configurator",
		Short:   "Declarative commerce configuration",
		Version: a.version,
		Long: `Configurator keeps a commerce platform in line with a YAML document.

It creates whatever the document declares and the platform lacks: shop
settings, channels, attributes, product and page types, categories and
products. Nothing is ever deleted. The current platform state can be
retrieved back into a document and compared with the local one.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(configFile, *flags)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "management", Title: "Management Commands:"},
	)

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default is ./.configurator.yaml or $HOME/.configurator.yaml)")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	pf.BoolVarP(&flags.Quiet, "quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	pf.BoolVar(&flags.NoColor, "no-color", false, "disable colored output")
	pf.StringVarP(&flags.Format, "format", "o", "", "output format: table, json, yaml, markdown")
	pf.StringVar(&flags.LogLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	pf.StringVar(&flags.URL, "url", "", "GraphQL endpoint of the platform")
	pf.StringVar(&flags.Token, "token", "", "platform API token")
	pf.StringVarP(&flags.File, "file", "f", "", "configuration document (default is config.yml)")

	root.SetVersionTemplate("configurator {{.Version}}\n")

	root.AddCommand(
		a.NewBootstrapCommand(),
		a.NewRetrieveCommand(),
		a.NewDiffCommand(),
		a.NewValidateCommand(),
		a.NewVersionCommand(),
	)
	return root
}

// setup reloads the config file when one was named, applies flags and
// rebuilds the logger.
func (a *App) setup(configFile string, flags Flags) error {
	if configFile != "" {
		config, err := LoadConfig(configFile)
		if err != nil {
			return err
		}
		a.config = config
	}
	a.config.UpdateFromFlags(flags)
	logger := NewLogger(a.config)
	a.logger = &logger
	return nil
}

// ExitOnError prints err and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
