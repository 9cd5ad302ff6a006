package app

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/agentstation/configurator"
	"github.com/agentstation/configurator/internal/cmd/output"
	"github.com/agentstation/configurator/pkg/errors"
	"github.com/agentstation/configurator/pkg/schema"
)

// ErrChanges is returned by diff --exit-code when the platform would change.
var ErrChanges = errors.New("differences found")

// NewBootstrapCommand applies the document to the platform.
func (a *App) NewBootstrapCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "bootstrap",
		Aliases: []string{"deploy", "push"},
		GroupID: "core",
		Short:   "Create or update platform configuration from the document",
		Long: `Bootstrap validates the document and reconciles it with the platform.

Shop settings, channels, product types, page types and categories are
reconciled first. Products follow once all of them succeeded. A product that
fails does not stop the others; the command exits non-zero when any entity
failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, c, err := a.platform()
			if err != nil {
				return err
			}
			defer a.writeMetrics(c)

			rep, runErr := c.Bootstrap(cmd.Context())
			if rep != nil {
				if err := output.Render(cmd.OutOrStdout(), format, rep, output.ReportData(rep)); err != nil {
					return err
				}
			}
			if runErr != nil {
				return runErr
			}
			if n := len(rep.Failures()); n > 0 {
				return fmt.Errorf("bootstrap finished with %d failed entities", n)
			}
			return nil
		},
	}
}

// NewRetrieveCommand saves the platform configuration as the document.
func (a *App) NewRetrieveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "retrieve",
		Aliases: []string{"introspect"},
		GroupID: "core",
		Short:   "Write the platform configuration to the document",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, c, err := a.platform()
			if err != nil {
				return err
			}
			defer a.writeMetrics(c)

			doc, err := c.Retrieve(cmd.Context())
			if err != nil {
				return err
			}
			a.logger.Info().Str("path", a.config.DocumentPath).Msg("Saved configuration")
			return output.Render(cmd.OutOrStdout(), format, doc, sectionData(doc))
		},
	}
}

// NewDiffCommand compares the document with the platform.
func (a *App) NewDiffCommand() *cobra.Command {
	var exitCode bool
	cmd := &cobra.Command{
		Use:     "diff",
		GroupID: "core",
		Short:   "Show differences between the document and the platform",
		Long: `Diff lists entities that bootstrap would create (added) or update
(changed), and entities that exist only on the platform (missing). Missing
entities are informational: bootstrap never deletes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, c, err := a.platform()
			if err != nil {
				return err
			}
			defer a.writeMetrics(c)

			res, err := c.Diff(cmd.Context())
			if err != nil {
				return err
			}
			if err := output.Render(cmd.OutOrStdout(), format, res, output.DiffData(res)); err != nil {
				return err
			}
			if exitCode && res.HasChanges() {
				return ErrChanges
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "exit non-zero when bootstrap would change the platform")
	return cmd
}

// NewValidateCommand checks the document without contacting the platform.
func (a *App) NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "validate",
		GroupID: "management",
		Short:   "Validate the configuration document",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.Client()
			if err != nil {
				return err
			}
			if err := c.Validate(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", a.config.DocumentPath)
			return err
		},
	}
}

// NewVersionCommand prints build information.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "configurator version %s\n", a.version)
			fmt.Fprintf(w, "commit: %s\n", a.commit)
			fmt.Fprintf(w, "built: %s\n", a.date)
			fmt.Fprintf(w, "built by: %s\n", a.builtBy)
			fmt.Fprintf(w, "go version: %s\n", runtime.Version())
			fmt.Fprintf(w, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// platform resolves the output format and a client for commands that need
// the remote platform.
func (a *App) platform() (output.Format, configurator.Client, error) {
	format, err := output.ParseFormat(a.config.Format)
	if err != nil {
		return "", nil, err
	}
	if err := a.config.RequirePlatform(); err != nil {
		return "", nil, err
	}
	c, err := a.Client()
	if err != nil {
		return "", nil, err
	}
	return output.DetectFormat(string(format)), c, nil
}

func (a *App) writeMetrics(c configurator.Client) {
	if a.config.MetricsFile == "" {
		return
	}
	if err := prometheus.WriteToTextfile(a.config.MetricsFile, c.Metrics()); err != nil {
		a.logger.Warn().Err(err).Str("path", a.config.MetricsFile).Msg("Failed to write metrics")
	}
}

func sectionData(doc *schema.Configuration) output.Data {
	shop := 0
	if doc.Shop != nil {
		shop = 1
	}
	data := output.Data{
		Headers:         []string{"Section", "Entities"},
		ColumnAlignment: []output.Align{output.AlignLeft, output.AlignRight},
	}
	for _, row := range []struct {
		name string
		n    int
	}{
		{"shop", shop},
		{"channels", len(doc.Channels)},
		{"productTypes", len(doc.ProductTypes)},
		{"pageTypes", len(doc.PageTypes)},
		{"categories", len(doc.Categories)},
		{"products", len(doc.Products)},
	} {
		data.Rows = append(data.Rows, []string{row.name, strconv.Itoa(row.n)})
	}
	return data
}
