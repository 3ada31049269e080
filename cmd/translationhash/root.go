package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/test-moodle/moodle-tiny-translations/internal/cli"
	"github.com/test-moodle/moodle-tiny-translations/internal/cli/config"
	"github.com/test-moodle/moodle-tiny-translations/pkg/hashsource"
	"github.com/test-moodle/moodle-tiny-translations/pkg/migrate"
	"github.com/test-moodle/moodle-tiny-translations/pkg/migrate/cache"
)

var (
	// Set at build time with -ldflags.
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type globalFlags struct {
	cfgFile     string
	profileName string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "translationhash",
		Short: "Maintains the hidden translation marker of rich-text fields.",
		Long: `translationhash keeps a hidden, stable identifier inside the HTML of rich-text
fields so translations can be matched to their source text across edits.

Single fields are read from a file argument or stdin and written to stdout:
  ensure    add or normalize the marker as the editor does on load
  submit    apply the save-time rules (reinsert a deleted marker, drop marker-only fields)
  paste     remove markers from pasted content
  replace   give the field a fresh hash
  strip     remove every marker
  inspect   report the markers present

migrate applies one of these operations to a directory of stored fields.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetVersionTemplate(`{{.Name}} version {{.Version}}` + "\n")

	pf := root.PersistentFlags()
	pf.StringVar(&g.cfgFile, "config", "", "Configuration file path (default searches ., $HOME/.config/translationhash/, $HOME/.translationhash/)")
	pf.StringVar(&g.profileName, "profile", "", "Name of configuration profile to use")
	pf.BoolP("verbose", "v", false, "Enable debug logging (disables the progress view)")
	pf.String("hash-source", hashsource.KindGenerate, `Where new hashes come from ("static", "generate", "none")`)
	pf.String("hash", "", `Hash used when --hash-source is "static"`)
	pf.String("editor-id", config.DefaultEditorID, "Element id of the simulated editor")
	pf.StringArray("skip-editor", nil, "Editor ids that never carry a marker (can be repeated)")
	pf.Bool("collapse-empty", false, "Also store a field holding only the marker and an empty paragraph as empty")
	pf.Bool("save-on-submit", true, "Write content back to the form field on submit")
	pf.String("report-format", config.ReportFormatText, `Output format for inspect and migrate ("text", "json", "toml")`)

	root.AddCommand(
		newContentCmd(g, "ensure [file]", "Add or normalize the marker as on editor load", (*cli.App).Ensure),
		newContentCmd(g, "submit [file]", "Apply the save-time marker rules", (*cli.App).Submit),
		newContentCmd(g, "paste [file]", "Remove markers from a pasted fragment", (*cli.App).Paste),
		newContentCmd(g, "replace [file]", "Replace the marker with one carrying a fresh hash", (*cli.App).Replace),
		newContentCmd(g, "strip [file]", "Remove every marker", (*cli.App).Strip),
		newContentCmd(g, "inspect [file]", "Report the markers present", (*cli.App).Inspect),
		newMigrateCmd(g),
	)
	return root
}

func loadApp(cmd *cobra.Command, g *globalFlags) (*cli.App, error) {
	cfg, logger, err := config.LoadAndValidate(g.cfgFile, g.profileName, version, cmd.Flags())
	if err != nil {
		return nil, err
	}
	return cli.New(cfg, logger, version, cmd.OutOrStdout()), nil
}

func newContentCmd(g *globalFlags, use, short string, run func(*cli.App, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd, g)
			if err != nil {
				return err
			}
			in, err := cli.ReadInput(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return run(app, in)
		},
	}
}

func newMigrateCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate -i <inputDir> -o <outputDir>",
		Short: "Apply a marker operation to a directory of stored fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			app, err := loadApp(cmd, g)
			if err != nil {
				return err
			}
			return app.Migrate(ctx)
		},
	}

	f := cmd.Flags()
	f.StringP("input", "i", "", "Required. Directory of stored fields.")
	f.StringP("output", "o", "", "Required. Output directory; may equal the input to migrate in place.")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	f.String("mode", string(migrate.DefaultMode), `Operation applied to every field ("normalize", "strip", "replace")`)
	f.Int("concurrency", migrate.DefaultConcurrency, "Number of parallel workers (0 for one per CPU)")
	f.StringArray("extension", nil, "File extensions treated as fields (default .html, .htm; can be repeated)")
	f.StringArray("ignore", nil, "Gitignore-style patterns for files/directories to skip (can be repeated)")
	f.String("default-encoding", "", "Encoding assumed when a file's charset cannot be detected")
	f.String("onError", string(migrate.DefaultOnErrorMode), `Behavior when a file fails ("continue" or "stop")`)
	f.String("cache-format", cache.DefaultFormat, `Cache index format ("gob" or "json")`)
	f.Bool("no-cache", false, "Reprocess every field and do not write the cache")
	f.Bool("no-tui", false, "Disable the progress view even in a terminal")
	f.String("report", "", "Also write the full report to this file (json unless --report-format is toml)")
	return cmd
}
