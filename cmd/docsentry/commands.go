package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/IvanShishkin/docsentry/internal/core"
	"github.com/IvanShishkin/docsentry/internal/explain"
	"github.com/IvanShishkin/docsentry/internal/filesystem"
	"github.com/IvanShishkin/docsentry/internal/report"
	"github.com/IvanShishkin/docsentry/internal/signatures"
	"github.com/IvanShishkin/docsentry/pkg/models"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// scanCmd creates the scan command
func scanCmd() *cobra.Command {
	var (
		filename    string
		contentType string
	)

	cmd := &cobra.Command{
		Use:   "scan <file|->",
		Short: "Scan a document and print the scan result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := filesystem.ReadDocument(path, filesystem.ParseSize(cfg.MaxSize))
			if err != nil {
				return err
			}
			if filename == "" {
				filename = filepath.Base(path)
			}

			scanner, m, err := newScanner(cfg)
			if err != nil {
				return err
			}
			defer flushMetrics(cfg, m)

			result := scanner.Scan(cmd.Context(), data, filename, contentType)
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&filename, "filename", "", "Filename to report (default: base name of the path)")
	cmd.Flags().StringVar(&contentType, "content-type", "", "Declared media type")

	return cmd
}

// sanitizeCmd creates the sanitize command
func sanitizeCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "sanitize <file>",
		Short: "Remove active content from a document",
		Long: `Write a sanitized copy of a document. The copy is named
<sha256>_clean.<ext> next to the input unless --output is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := filesystem.ReadDocument(path, filesystem.ParseSize(cfg.MaxSize))
			if err != nil {
				return err
			}

			scanner, m, err := newScanner(cfg)
			if err != nil {
				return err
			}
			defer flushMetrics(cfg, m)

			outcome := scanner.Sanitize(filesystem.GetExtension(path), data)

			dir, name := filepath.Dir(path), outcome.Artifact.Filename()
			if output != "" {
				dir, name = filepath.Dir(output), filepath.Base(output)
			}
			written, err := filesystem.WriteDocument(dir, name, outcome.Artifact.View())
			if err != nil {
				return err
			}

			w := cmd.ErrOrStderr()
			switch {
			case outcome.Error != "":
				fmt.Fprintf(w, "  %s⚠ %s sanitizer failed:%s %s\n", colorYellow, outcome.Engine, colorReset, outcome.Error)
			case outcome.Changed:
				fmt.Fprintf(w, "  %s✓ Removed:%s %s\n", colorGreen, colorReset, strings.Join(outcome.Removed, ", "))
			default:
				fmt.Fprintf(w, "  %sNothing to remove (%s)%s\n", colorGray, outcome.Engine, colorReset)
			}
			fmt.Fprintf(w, "  %sWritten:%s %s\n", colorGray, colorReset, written)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path")

	return cmd
}

// processCmd creates the process command
func processCmd() *cobra.Command {
	var (
		workers         int
		maxSize         string
		extensions      []string
		exclude         []string
		reportFormat    string
		outputFile      string
		outDir          string
		failOnMalicious bool
	)

	cmd := &cobra.Command{
		Use:   "process <path>",
		Short: "Scan, sanitize and re-scan documents",
		Long: `Run the full pipeline on a document or on every document under a
directory: scan, sanitize, re-scan the clean copy and reconcile the results
into one report per document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// Override config with CLI flags
			if workers > 0 {
				cfg.Workers = workers
			}
			if maxSize != "" {
				cfg.MaxSize = maxSize
			}
			if len(extensions) > 0 {
				cfg.Extensions = extensions
			}
			if len(exclude) > 0 {
				cfg.Exclude = exclude
			}
			if reportFormat != "" {
				cfg.ReportFormat = reportFormat
			}
			if outputFile != "" {
				cfg.OutputFile = outputFile
			}
			if outDir != "" {
				cfg.OutDir = outDir
			}

			subs, err := collectSubmissions(cfg.MaxSize, root, filesystem.NewWalker(cfg, logger))
			if err != nil {
				return err
			}
			if len(subs) == 0 {
				return fmt.Errorf("no documents found under %s", root)
			}

			if !confirmAI(cfg, len(subs)) {
				fmt.Printf("  %sProceeding without AI scoring...%s\n\n", colorGray, colorReset)
				cfg.AI.Enabled = false
			}

			scanner, m, err := newScanner(cfg)
			if err != nil {
				return err
			}
			defer flushMetrics(cfg, m)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			reports := scanner.ProcessBatch(ctx, subs, cfg.Workers)

			if cfg.OutDir != "" {
				for _, rep := range reports {
					if err := writeClean(cfg.OutDir, rep); err != nil {
						logger.Error("Failed to write clean copy", zap.String("file", rep.Original.Filename), zap.Error(err))
					}
				}
			}

			gen, err := report.NewGenerator(cfg, logger)
			if err != nil {
				return err
			}
			gen.SetOutput(cmd.OutOrStdout())
			path, err := gen.Generate(reports)
			if err != nil {
				return err
			}
			if path != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %sReport:%s    %s%s%s\n\n", colorGray, colorReset, colorOrange, path, colorReset)
			}

			if failOnMalicious {
				for _, rep := range reports {
					if rep.PreScan != nil && rep.PreScan.Verdict == models.VerdictMalicious {
						return fmt.Errorf("malicious documents found")
					}
				}
			}
			return nil
		},
	}

	// Flags
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of documents processed in parallel (default: CPU cores)")
	cmd.Flags().StringVar(&maxSize, "max-size", "", "Maximum document size (default: 50M)")
	cmd.Flags().StringSliceVar(&extensions, "extensions", nil, "Document extensions to pick up (comma-separated)")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Directories to exclude (comma-separated)")
	cmd.Flags().StringVarP(&reportFormat, "report", "r", "", "Report format: text, json, markdown (default: console output)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Report file path, - for stdout")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Directory for sanitized copies")
	cmd.Flags().BoolVar(&failOnMalicious, "fail-on-malicious", false, "Exit non-zero when a document is malicious")

	return cmd
}

// collectSubmissions walks root and reads every document found
func collectSubmissions(maxSize, root string, walker *filesystem.Walker) ([]core.Submission, error) {
	limit := filesystem.ParseSize(maxSize)

	var subs []core.Submission
	err := walker.Walk(root, func(info *filesystem.DocumentInfo) error {
		data, err := filesystem.ReadDocument(info.Path, limit)
		if err != nil {
			logger.Warn("Skipping document", zap.String("path", info.Path), zap.Error(err))
			return nil
		}
		subs = append(subs, core.Submission{
			Data:     data,
			Filename: filepath.Base(info.Path),
			References: map[string]string{
				"scan_id": uuid.NewString(),
				"path":    info.Path,
			},
		})
		return nil
	})
	return subs, err
}

// writeClean stores the sanitized artifact of a report under dir
func writeClean(dir string, rep *models.Report) error {
	if rep.Sanitizer == nil || rep.Sanitizer.Artifact == nil {
		return nil
	}
	_, err := filesystem.WriteDocument(dir, rep.Sanitizer.Artifact.Filename(), rep.Sanitizer.Artifact.View())
	return err
}

// explainCmd creates the explain command
func explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <findings.json|->",
		Short: "Translate raw scanner findings into explained findings",
		Long: `Read findings produced by another scanner (a JSON array, or an object
with a "findings" array) and print them with a severity and a plain-language
explanation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = os.Stdin
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			raw, err := decodeFindings(r)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), explain.TranslateRaw(raw))
		},
	}
}

// decodeFindings accepts an array, an object with a findings array, or a
// single value
func decodeFindings(r io.Reader) ([]interface{}, error) {
	var v interface{}
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to parse findings: %w", err)
	}

	switch t := v.(type) {
	case []interface{}:
		return t, nil
	case map[string]interface{}:
		if list, ok := t["findings"].([]interface{}); ok {
			return list, nil
		}
		return []interface{}{t}, nil
	case nil:
		return nil, nil
	default:
		return []interface{}{t}, nil
	}
}

// rulesCmd creates the rules command
func rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the detection vocabulary in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			rules, err := signatures.NewLoader(cfg.RulesPath).Load()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			source := "built-in"
			if cfg.RulesPath != "" {
				source = cfg.RulesPath
			}
			fmt.Fprintf(w, "RULES (%s):\n\n", source)

			fmt.Fprintln(w, "STRUCTURAL MARKERS:")
			sets := append([]*models.MarkerSet(nil), rules.Structural...)
			sort.Slice(sets, func(i, j int) bool { return sets[i].Family < sets[j].Family })
			for _, ms := range sets {
				fmt.Fprintf(w, "  ✓ %-6s %-22s %-7s %s\n", ms.Family, ms.FindingID, ms.Severity, strings.Join(ms.Markers, ", "))
			}
			fmt.Fprintln(w)

			fmt.Fprintf(w, "SUSPICIOUS TOKENS (%d):\n", len(rules.SuspiciousTokens))
			fmt.Fprintf(w, "  %s\n", strings.Join(rules.SuspiciousTokens, ", "))
			return nil
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

