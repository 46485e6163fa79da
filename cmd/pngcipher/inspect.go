package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/pngcipher/internal/chunk"
	"github.com/nao1215/pngcipher/internal/config"
	"github.com/nao1215/pngcipher/internal/database"
	"github.com/nao1215/pngcipher/internal/model"
	"github.com/nao1215/pngcipher/internal/privacy"
	"github.com/nao1215/pngcipher/internal/report"
)

// NewInspectCmd creates the inspect command.
func NewInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [png-file...]",
		Short: "List the chunks and metadata of PNG images",
		Long: `Inspect parses each image and reports its header, every chunk with its
checksum status, the metadata found in text, time, EXIF and XMP chunks, and
any problem found while reading the file.

Metadata that may identify the author, the device or the place an image was
made in is listed as privacy findings, highest risk first.

Chunks marked with * are removed by anonymize.

Examples:
  # Human-readable report
  pngcipher inspect photo.png

  # JSON report written to a file
  pngcipher inspect --json -o report.json photo.png

  # Markdown report, also saved to the database
  pngcipher inspect --markdown --save photo.png

  # List the saved reports of a file
  pngcipher inspect --history photo.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: runInspectCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("save", false,
		"Save the report to the database")
	cmd.Flags().Bool("history", false,
		"List saved reports instead of inspecting")

	return cmd
}

// runInspectCmd executes the inspect command.
func runInspectCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	save, err := cmd.Flags().GetBool("save")
	if err != nil {
		return err
	}
	history, err := cmd.Flags().GetBool("history")
	if err != nil {
		return err
	}

	logger := setupLogger(cmd, cfg.Verbose)
	ctx, cancel := signalContext(cmd)
	defer cancel()

	var store *database.Store
	if save || history {
		store, err = openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	if history {
		return printHistory(ctx, cmd.OutOrStdout(), store, cfg.Inputs)
	}

	out := cmd.OutOrStdout()
	if cfg.ReportFile != "" {
		f, err := createOutputFile(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	return inspectFiles(ctx, cfg, out, store, logger)
}

// inspectFiles writes a report for every input. Unreadable or malformed
// files still get a report; the command fails once all were written.
func inspectFiles(ctx context.Context, cfg *config.Config, out io.Writer, store *database.Store, logger *slog.Logger) error {
	writer := newReportWriter(cfg, out)
	parser := chunk.NewParser(chunk.WithLogger(logger))
	analyzer := privacy.NewAnalyzer(privacy.WithLogger(logger))

	failed := 0
	for _, input := range cfg.Inputs {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := reportName(input)
		r := inspectFile(ctx, parser, input, name)
		if r.Failed() {
			failed++
			logger.Warn("inspection failed", "file", input, "error", r.Error)
		}
		if err := analyzer.Inspect(ctx, r); err != nil {
			return err
		}

		if _, err := writer.Write(r); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}

		if store != nil {
			id, err := store.SaveInspection(ctx, r)
			if err != nil {
				return err
			}
			logger.Info("inspection saved", "file", name, "id", id)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be parsed", failed, len(cfg.Inputs))
	}
	return nil
}

// inspectFile opens and inspects one file. An open failure is recorded in
// the report.
func inspectFile(ctx context.Context, parser *chunk.Parser, path, name string) *model.InspectionReport {
	f, err := os.Open(path) //nolint:gosec // user-supplied path
	if err != nil {
		r := model.NewInspectionReport(name)
		r.Error = err.Error()
		r.AddEntry(model.SeverityError, err.Error())
		return r
	}
	defer f.Close()
	return parser.Inspect(ctx, f, name)
}

// reportName returns the absolute path of input so saved reports of the
// same file match regardless of the working directory.
func reportName(input string) string {
	abs, err := filepath.Abs(input)
	if err != nil {
		return input
	}
	return abs
}

// newReportWriter returns the writer selected by the report flags.
func newReportWriter(cfg *config.Config, out io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
}

// printHistory lists the saved reports of every input.
func printHistory(ctx context.Context, out io.Writer, store *database.Store, inputs []string) error {
	for _, input := range inputs {
		name := reportName(input)
		history, err := store.InspectionHistory(ctx, name)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s\n", name)
		if len(history) == 0 {
			fmt.Fprintln(out, "  no saved reports")
			continue
		}
		fmt.Fprintf(out, "  %-6s %-25s %7s %9s %8s %9s\n", "ID", "INSPECTED", "CHUNKS", "WARNINGS", "BAD CRC", "FINDINGS")
		for _, meta := range history {
			fmt.Fprintf(out, "  %-6d %-25s %7d %9d %8d %9d\n",
				meta.ID,
				meta.Timestamp.Format("2006-01-02 15:04:05 MST"),
				meta.Summary["chunks"],
				meta.Summary["warnings"],
				meta.Summary["invalid_crc"],
				meta.Summary["findings"],
			)
		}
	}
	return nil
}
