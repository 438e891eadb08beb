package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ramresume-backend/internal/bootstrap"
	"ramresume-backend/internal/generation"
	"ramresume-backend/internal/shared/config"
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Run one generation against the configured LLM provider, bypassing the API",
	Long:  "Run keyword extraction, bullet enhancement or cover letter drafting locally. No usage is charged and no scan is recorded.",
	RunE:  runPrompt,
}

var (
	promptOp       string
	promptJDFile   string
	promptResume   string
	promptOutFile  string
	promptProvider string
	promptModel    string
)

func init() {
	promptCmd.Flags().StringVar(&promptOp, "op", "keywords", "operation: keywords, bullets or cover")
	promptCmd.Flags().StringVar(&promptJDFile, "jd", "", "path to the job description text (required)")
	promptCmd.Flags().StringVar(&promptResume, "resume", "", "path to the resume (.txt or .pdf), required for bullets and cover")
	promptCmd.Flags().StringVarP(&promptOutFile, "out", "o", "", "write JSON output to this file as well")
	promptCmd.Flags().StringVar(&promptProvider, "provider", "", "override LLM_PROVIDER")
	promptCmd.Flags().StringVar(&promptModel, "model", "", "override LLM_MODEL")
	_ = promptCmd.MarkFlagRequired("jd")

	rootCmd.AddCommand(promptCmd)
}

func runPrompt(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if promptProvider != "" {
		cfg.LLMProvider = strings.ToLower(strings.TrimSpace(promptProvider))
	}
	if promptModel != "" {
		cfg.LLMModel = promptModel
	}

	jdBytes, err := os.ReadFile(promptJDFile)
	if err != nil {
		return fmt.Errorf("read job description: %w", err)
	}
	jobDescription := string(jdBytes)

	var resume string
	if promptOp != "keywords" {
		if promptResume == "" {
			return fmt.Errorf("--resume is required for --op %s", promptOp)
		}
		if resume, err = readResume(ctx, promptResume); err != nil {
			return err
		}
	}

	provider, err := bootstrap.NewProvider(ctx, cfg)
	if err != nil {
		return err
	}
	if c, ok := provider.(io.Closer); ok {
		defer c.Close()
	}
	gw := generation.NewGateway(provider)

	var result any
	switch promptOp {
	case "keywords":
		result, err = gw.ExtractKeywords(ctx, jobDescription)
	case "bullets":
		result, err = gw.EnhanceBullets(ctx, resume, jobDescription)
	case "cover":
		var letter string
		letter, err = gw.DraftCoverLetter(ctx, resume, jobDescription)
		result = map[string]string{"coverLetter": letter}
	default:
		return fmt.Errorf("unsupported --op %q", promptOp)
	}
	if err != nil {
		return err
	}

	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("format json: %w", err)
	}
	pretty = append(pretty, '\n')
	if promptOutFile != "" {
		if err := os.WriteFile(promptOutFile, pretty, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	_, err = cmd.OutOrStdout().Write(pretty)
	return err
}
