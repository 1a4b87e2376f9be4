// Command proposalctl generates proposals from request files without the
// HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"proposal-generator/internal/app"
	"proposal-generator/internal/config"
	"proposal-generator/internal/logger"
	"proposal-generator/internal/services"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	templatesDir  string
	proposalsFile string
	logLevel      string
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "proposalctl",
		Short:         "Generate client proposals from DOCX templates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.templatesDir, "templates", "", "Templates directory (default $TEMPLATES_DIR or ./templates)")
	cmd.PersistentFlags().StringVar(&opts.proposalsFile, "proposals", "", "Proposal definitions YAML (default built-in set)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(listCmd(opts), placeholdersCmd(opts), generateCmd(opts), scaffoldCmd(opts))
	return cmd
}

// setup builds an application that keeps records in memory and stores
// documents under storeDir.
func setup(ctx context.Context, opts *options, storeDir string) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.templatesDir != "" {
		cfg.Proposals.TemplatesDir = opts.templatesDir
	}
	if opts.proposalsFile != "" {
		cfg.Proposals.File = opts.proposalsFile
	}
	cfg.Database.Host = ""
	cfg.Storage.Backend = "local"
	cfg.Storage.LocalDir = storeDir

	zapLogger, err := logger.New(logger.Config{Level: opts.logLevel, OutputPath: "stderr", Format: "console"})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return app.New(ctx, cfg, zapLogger)
}

func listCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured proposal types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), opts, os.TempDir())
			if err != nil {
				return err
			}
			defer a.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTEMPLATE\tSTRATEGY\tTEAM")
			for _, cfg := range a.Templates.Proposals() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", cfg.Name, cfg.Template, cfg.Strategy, cfg.Team)
			}
			return w.Flush()
		},
	}
}

func placeholdersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "placeholders <proposal type>",
		Short: "Print the tokens found in a proposal template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), opts, os.TempDir())
			if err != nil {
				return err
			}
			defer a.Close()

			tokens, err := a.Templates.Placeholders(args[0])
			if err != nil {
				return err
			}
			for _, token := range tokens {
				fmt.Fprintln(cmd.OutOrStdout(), token)
			}
			return nil
		},
	}
}

func generateCmd(opts *options) *cobra.Command {
	var (
		requestPath   string
		signaturePath string
		outDir        string
	)

	cmd := &cobra.Command{
		Use:   "generate <proposal type>",
		Short: "Generate a proposal from a JSON request file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(requestPath)
			if err != nil {
				return fmt.Errorf("failed to read request: %w", err)
			}
			var form services.GenerationForm
			if err := json.Unmarshal(data, &form); err != nil {
				return fmt.Errorf("failed to parse request: %w", err)
			}

			var signature []byte
			if signaturePath != "" {
				if signature, err = os.ReadFile(signaturePath); err != nil {
					return fmt.Errorf("failed to read signature: %w", err)
				}
			}

			req, err := form.ToRequest(args[0], signature, time.Now())
			if err != nil {
				return err
			}

			storeDir, err := os.MkdirTemp("", "proposalctl-*")
			if err != nil {
				return err
			}
			defer os.RemoveAll(storeDir)

			a, err := setup(cmd.Context(), opts, storeDir)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Proposals.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			for _, warning := range result.Warnings {
				a.Logger.Warn("generation warning", zap.String("warning", warning))
			}

			path, err := exportDocument(cmd.Context(), a.Documents, result.Document.ID, outDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "document:     %s\n", path)
			fmt.Fprintf(out, "rows removed: %d\n", result.RowsRemoved)
			for _, line := range result.Pricing.Lines {
				fmt.Fprintf(out, "%-24s %.2f\n", line.Token, line.Amount)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&requestPath, "request", "r", "", "Request JSON file")
	cmd.Flags().StringVar(&signaturePath, "signature", "", "Signature image (png or jpeg)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "outputs", "Output directory")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}

func scaffoldCmd(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "scaffold <proposal type>",
		Short: "Write a starter template holding every token of a proposal type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), opts, os.TempDir())
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := a.Templates.Scaffold(args[0], f); err != nil {
				f.Close()
				os.Remove(output)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "template: %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "template.docx", "Output file")
	return cmd
}
