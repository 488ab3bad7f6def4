package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tordrt/spannerddl"
	"github.com/tordrt/spannerddl/internal/config"
)

type flags struct {
	configPath     string
	dbURL          string
	outputFile     string
	outputDir      string
	exclude        string
	schemaName     string
	format         string
	checkRefs      bool
	verbose        bool
	splitThreshold int

	snapshotTarget string
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:           "spannerddl",
		Short:         "Print a Cloud Spanner schema as canonical DDL",
		Long:          `spannerddl reads a Cloud Spanner schema, live or from an information_schema snapshot kept in PostgreSQL, MySQL or SQLite, and prints it as CREATE TABLE / CREATE INDEX statements with every interleaved table after its parent.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "YAML config file")
	pf.StringVar(&f.dbURL, "db-url", "", "Database URL (spanner://, postgres://, mysql:// or sqlite://)")
	pf.StringVarP(&f.exclude, "exclude", "x", "", "Tables to exclude with their interleaved children (comma-separated)")
	pf.StringVarP(&f.schemaName, "schema", "s", "", "PostgreSQL schema holding the snapshot (default: "+spannerddl.DefaultSnapshotSchema+")")
	pf.BoolVar(&f.checkRefs, "check-refs", false, "Fail when keys or indexes name unknown columns or tables")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "Log progress to stderr")

	rootCmd.Flags().StringVarP(&f.outputFile, "output", "o", "", "Output file (default: stdout)")
	rootCmd.Flags().StringVarP(&f.outputDir, "output-dir", "d", "", "Output directory for multi-file output")
	rootCmd.Flags().StringVarP(&f.format, "format", "f", spannerddl.FormatDDL, "Output format: ddl or markdown")
	rootCmd.Flags().IntVar(&f.splitThreshold, "split-threshold", 0, "Split into multiple files only when table count exceeds this (requires --output-dir)")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Copy a schema into a PostgreSQL, MySQL or SQLite snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cmd, f)
		},
	}
	snapshotCmd.Flags().StringVar(&f.snapshotTarget, "to", "", "Snapshot database URL (postgres://, mysql:// or sqlite://)")
	_ = snapshotCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(snapshotCmd)

	return rootCmd
}

// loadConfig merges the config file, the environment and any flags the
// user set explicitly, in that order
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("db-url") {
		cfg.DatabaseURL = f.dbURL
	}
	if changed("exclude") {
		cfg.ExcludeTables = parseTableList(f.exclude)
	}
	if changed("schema") {
		cfg.SnapshotSchema = f.schemaName
	}
	if changed("check-refs") {
		cfg.CheckReferences = f.checkRefs
	}
	if changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if cmd.Flags().Lookup("format") != nil && changed("format") {
		cfg.Output.Format = f.format
	}
	if cmd.Flags().Lookup("output") != nil && changed("output") {
		cfg.Output.File = f.outputFile
	}
	if cmd.Flags().Lookup("output-dir") != nil && changed("output-dir") {
		cfg.Output.Dir = f.outputDir
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("--db-url must be specified (or database_url in the config file)")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(verbose bool, w io.Writer) *log.Logger {
	if !verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(w, "spannerddl: ", log.LstdFlags)
}

func extractOptions(cfg *config.Config) *spannerddl.Options {
	return &spannerddl.Options{
		ExcludeTables:   cfg.ExcludeTables,
		SchemaName:      cfg.SnapshotSchema,
		CheckReferences: cfg.CheckReferences,
	}
}

func run(cmd *cobra.Command, f *flags) error {
	ctx := context.Background()

	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Verbose, cmd.ErrOrStderr())

	logger.Printf("reading schema from %s", redact(cfg.DatabaseURL))
	s, err := spannerddl.ExtractSchema(ctx, cfg.DatabaseURL, extractOptions(cfg))
	if err != nil {
		return fmt.Errorf("failed to extract schema: %w", err)
	}
	logger.Printf("read %d tables", s.Len())

	// Multi-file output
	shouldSplit := cfg.Output.Dir != "" && (f.splitThreshold == 0 || s.Len() > f.splitThreshold)
	if shouldSplit {
		logger.Printf("writing %s files to %s", cfg.Output.Format, cfg.Output.Dir)
		if err := spannerddl.FormatSchema(s, &spannerddl.OutputOptions{OutputDir: cfg.Output.Dir, Format: cfg.Output.Format}); err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		return nil
	}

	// Single-file output
	writer := cmd.OutOrStdout()
	if cfg.Output.File != "" {
		file, err := os.Create(cfg.Output.File)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if err := file.Close(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to close output file: %v\n", err)
			}
		}()
		writer = file
	}

	if err := spannerddl.FormatSchema(s, &spannerddl.OutputOptions{Writer: writer, Format: cfg.Output.Format}); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	return nil
}

func runSnapshot(cmd *cobra.Command, f *flags) error {
	ctx := context.Background()

	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Verbose, cmd.ErrOrStderr())

	s, err := spannerddl.ExtractSchema(ctx, cfg.DatabaseURL, extractOptions(cfg))
	if err != nil {
		return fmt.Errorf("failed to extract schema: %w", err)
	}

	logger.Printf("writing %d tables to %s", s.Len(), redact(f.snapshotTarget))
	if err := spannerddl.WriteSnapshot(ctx, f.snapshotTarget, s, extractOptions(cfg)); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func parseTableList(tablesStr string) []string {
	return config.SplitList(tablesStr)
}

// redact hides the password of a URL before it is logged
func redact(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return url
	}
	user, _, hasPassword := strings.Cut(creds, ":")
	if !hasPassword {
		return url
	}
	return scheme + "://" + user + ":xxxxx@" + host
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
