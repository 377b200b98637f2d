package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/civicgate/filingpilot/internal/config"
	"github.com/civicgate/filingpilot/internal/documents"
	"github.com/civicgate/filingpilot/internal/logging"
	"github.com/civicgate/filingpilot/internal/taxonomy"
	"github.com/civicgate/filingpilot/internal/types"
	"github.com/civicgate/filingpilot/internal/workflow"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "filingpilot",
		Short:         "Drive a filing through the remote wizard portal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSubmitCmd(), newValidateCmd())
	return root
}

func newSubmitCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "submit <application.yaml>",
		Short: "Submit one application and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApplication(args[0])
			if err != nil {
				return err
			}

			cfg := config.LoadOrDefault()
			logger := logging.NewDefault()
			defer logger.Sync()

			var validator workflow.Validator
			if cfg.Taxonomy.Enabled && cfg.Taxonomy.Address != "" {
				validator = taxonomy.New(cfg.Taxonomy)
			}

			orchestrator := workflow.New(cfg, logger, nil, documents.New(cfg.Documents), validator)
			result := orchestrator.Run(cmd.Context(), app)

			if outDir != "" && result.Success {
				if err := writeDocuments(outDir, result.Documents); err != nil {
					return err
				}
			}
			return printResult(cmd, result)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "directory to write issued documents into")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <application.yaml>",
		Short: "Check an application file without contacting the portal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApplication(args[0])
			if err != nil {
				return err
			}
			if len(app.Classifications) == 0 {
				return fmt.Errorf("application needs at least one classification")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d classification(s), %d attachment(s)\n",
				len(app.Classifications), len(app.Attachments))
			return nil
		},
	}
}

func loadApplication(path string) (*types.Application, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read application: %w", err)
	}
	var app types.Application
	if err := yaml.Unmarshal(data, &app); err != nil {
		return nil, fmt.Errorf("parse application: %w", err)
	}
	return &app, nil
}

func writeDocuments(dir string, docs []types.Document) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, doc := range docs {
		if err := os.WriteFile(dir+"/"+doc.Filename, doc.Bytes, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func printResult(cmd *cobra.Command, result *types.Result) error {
	// Documents are written to disk, not dumped to the terminal.
	trimmed := *result
	trimmed.Documents = nil

	out, err := json.MarshalIndent(&trimmed, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	if !result.Success {
		return fmt.Errorf("filing failed at stage %d: %s", result.FailedStage, result.Message)
	}
	return nil
}
