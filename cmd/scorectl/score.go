package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"agrifin/internal/credit"
	"agrifin/internal/credit/handler"
	"agrifin/internal/credit/service"
	"agrifin/internal/platform/logger"
	dErrors "agrifin/pkg/domain-errors"
)

type scoreFlags struct {
	batch       bool
	concurrency int
}

func newScoreCmd() *cobra.Command {
	f := &scoreFlags{}

	cmd := &cobra.Command{
		Use:   "score [file]",
		Short: "Score one applicant, or a batch with --batch, read from a JSON or YAML file",
		Long: "Reads an applicant profile from file, or from stdin when file is \"-\" or omitted.\n" +
			"Exits 2 when a mandatory field is missing and 3 when the input cannot be read.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runScore(cmd, path, f)
		},
	}

	cmd.Flags().BoolVar(&f.batch, "batch", false, `Input is {"applicants": [...]}`)
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 8, "Applicants scored in parallel in batch mode")
	return cmd
}

func runScore(cmd *cobra.Command, path string, f *scoreFlags) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	level, _ := cmd.Flags().GetString("log-level")
	svc := service.New(credit.NewEngine(),
		service.WithLogger(logger.NewWithWriter(cmd.ErrOrStderr(), level)),
		service.WithBatchLimits(1<<16, max(f.concurrency, 1)),
	)

	raw, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return exitError(exitReadFailure, "failed to read input: %v", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if f.batch {
		var req handler.BatchScoreRequest
		if err := decodeInput(raw, &req); err != nil {
			return exitError(exitReadFailure, "failed to parse input: %v", err)
		}
		if err := req.Validate(); err != nil {
			return validationExit(err)
		}
		results, err := svc.ScoreBatch(ctx, req.ToProfiles())
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), format, results)
	}

	var req handler.ScoreRequest
	if err := decodeInput(raw, &req); err != nil {
		return exitError(exitReadFailure, "failed to parse input: %v", err)
	}
	if err := req.Validate(); err != nil {
		return validationExit(err)
	}
	result, err := svc.Score(ctx, req.ToProfile())
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), format, result)
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// decodeInput accepts JSON or YAML. YAML is normalized to JSON first so both
// go through the same field coercion as the HTTP API.
func decodeInput(raw []byte, dst any) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	normalized, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(normalized, dst)
}

func validationExit(err error) error {
	if de, ok := dErrors.As(err); ok {
		return exitError(exitInvalidInput, "%s", de.Message)
	}
	return exitError(exitInvalidInput, "%v", err)
}

func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json", "yaml":
		return format, nil
	default:
		return "", exitError(exitInvalidInput, "unknown format %q: want json or yaml", format)
	}
}

func writeOutput(w io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
