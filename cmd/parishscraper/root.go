// cmd/parishscraper/root.go - command tree
package main

import (
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/valpere/parishscraper/internal/config"
	"github.com/valpere/parishscraper/internal/errors"
)

type app struct {
	configFile string
	envFile    string
	verbose    bool

	errs   *errors.Service
	stdout io.Writer
	stderr io.Writer
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		errs:   errors.NewService(),
		stdout: stdout,
		stderr: stderr,
	}
}

func (a *app) root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "parishscraper",
		Short:         "Extracts parish register transcriptions from Ancestry and FamilySearch.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.errs.WithVerbose(a.verbose)
			// A missing .env is normal; credentials may come from the environment.
			_ = godotenv.Load(a.envFile)
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "parishscraper.yaml", "configuration file")
	flags.StringVar(&a.envFile, "env-file", ".env", "file of KEY=value credentials loaded before the configuration")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging and technical error details")

	cmd.AddCommand(
		a.ancestryCmd(),
		a.familySearchCmd(),
		a.validateCmd(),
		a.templateCmd(),
		a.versionCmd(),
	)
	return cmd
}

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Checks the configuration file and reports every problem found.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readConfigFile(a.configFile)
			if err != nil {
				return err
			}
			cfg, err := config.Parse(data)
			if err != nil {
				return errors.Config("validate", err)
			}

			result := cfg.ValidateDetailed()
			for _, w := range result.Warnings {
				fmt.Fprintf(a.stdout, "⚠ %s\n", w)
			}
			if !result.Valid {
				for _, e := range result.Errors {
					fmt.Fprintf(a.stdout, "✗ %s\n", e.Error())
				}
				for _, s := range config.Suggestions(result) {
					fmt.Fprintf(a.stdout, "  • %s\n", s)
				}
				return errors.Config("validate", fmt.Errorf("%s has %d error(s)", a.configFile, len(result.Errors)))
			}

			fmt.Fprintf(a.stdout, "✓ Configuration file '%s' is valid\n", a.configFile)
			if a.verbose {
				fmt.Fprintf(a.stdout, "  Site: %s\n", cfg.Site)
				fmt.Fprintf(a.stdout, "  Browser driver: %s\n", cfg.Browser.Driver)
				fmt.Fprintf(a.stdout, "  Output format: %s\n", cfg.Output.Format)
			}
			return nil
		},
	}
}

func (a *app) templateCmd() *cobra.Command {
	var site, out string
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Prints a starter configuration for a site.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if site != config.SiteAncestry && site != config.SiteFamilySearch {
				return errors.Config("template", fmt.Errorf("unknown site %q, expected %s or %s",
					site, config.SiteAncestry, config.SiteFamilySearch))
			}
			tmpl := config.GenerateTemplate(site)
			if out == "" {
				return config.SaveToWriter(tmpl, a.stdout)
			}
			if err := config.SaveToFile(tmpl, out); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Template written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&site, "site", config.SiteAncestry, "ancestry or familysearch")
	cmd.Flags().StringVarP(&out, "output", "o", "", "write to a file instead of stdout")
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Shows version information.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "parishscraper %s\n", version)
			fmt.Fprintf(a.stdout, "Build time: %s\n", buildTime)
			fmt.Fprintf(a.stdout, "Git commit: %s\n", gitCommit)
		},
	}
}
