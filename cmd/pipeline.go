package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/ledgerloom/internal/cache"
	"github.com/KaramelBytes/ledgerloom/internal/dataset"
	"github.com/KaramelBytes/ledgerloom/internal/ingest"
	"github.com/KaramelBytes/ledgerloom/internal/schema"
	"github.com/KaramelBytes/ledgerloom/internal/utils"
)

// Flags shared by the commands that read an export.
var (
	flagSheet           string
	flagAllowIncomplete bool
	flagOutput          string
)

func addInputFlags(c *cobra.Command) {
	c.Flags().StringVar(&flagSheet, "sheet", "", "XLSX: sheet name to read (default first sheet)")
	c.Flags().BoolVar(&flagAllowIncomplete, "allow-incomplete", false, "continue when required fields are missing")
}

func addOutputFlags(c *cobra.Command, format *string, def string) {
	c.Flags().StringVarP(&flagOutput, "output", "o", "", "optional path to write the result")
	c.Flags().StringVar(format, "format", def, "output format: json|markdown")
}

// normalize reads path and maps it onto the canonical schema. Incomplete
// mappings are rejected unless allowed by flag or config.
func normalize(path string) (*dataset.Dataset, *schema.MappingReport, error) {
	text, err := ingest.ReadFile(path, ingest.Options{Sheet: flagSheet})
	if err != nil {
		return nil, nil, err
	}
	m := schema.New(logger, schema.Options{StrictQuotes: cfg.StrictQuotes})
	ds, rep, err := m.Process(text)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	logger.Debug("normalized export",
		zap.String("file", path),
		zap.String("format", rep.SourceFormat),
		zap.Int("rows", rep.Rows),
		zap.Strings("missing", rep.MissingRequired))
	return ds, rep, nil
}

func rejectIncomplete(rep *schema.MappingReport) error {
	if rep.Success || flagAllowIncomplete || cfg.AllowIncomplete {
		return nil
	}
	return schema.IncompleteError(rep.MissingRequired)
}

func openCache(ctx context.Context) (*cache.ModelCache, error) {
	dir, err := utils.ExpandHome(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	store, err := cache.Open(ctx, cfg.CacheBackend, dir)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return cache.New(store, logger), nil
}

// emit writes data to --output when set, otherwise to the command's stdout.
func emit(cmd *cobra.Command, what string, data []byte) error {
	if flagOutput != "" {
		if err := utils.SafeWriteFile(flagOutput, data); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s to %s\n", what, flagOutput)
		return nil
	}
	out := cmd.OutOrStdout()
	if _, err := out.Write(data); err != nil {
		return err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		fmt.Fprintln(out)
	}
	return nil
}

func checkFormat(format string) error {
	switch format {
	case "json", "markdown", "md":
		return nil
	default:
		return fmt.Errorf("unsupported --format: %s (use json or markdown)", format)
	}
}
