// Command toolbox drives the RAMResume API from a terminal.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ramresume-backend/internal/wizard"
)

var rootCmd = &cobra.Command{
	Use:           "toolbox",
	Short:         "RAMResume toolbox client",
	Long:          "Extract job keywords, tailor resume bullets and draft cover letters against a running RAMResume API.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	apiURL   string
	apiToken string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "API base URL (default $RAMRESUME_API_URL or http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "", "session token (default $RAMRESUME_TOKEN)")
}

func newAPIClient() (*wizard.Client, error) {
	base := strings.TrimSpace(apiURL)
	if base == "" {
		base = os.Getenv("RAMRESUME_API_URL")
	}
	if base == "" {
		base = "http://localhost:8080"
	}
	token := strings.TrimSpace(apiToken)
	if token == "" {
		token = strings.TrimSpace(os.Getenv("RAMRESUME_TOKEN"))
	}
	if token == "" {
		return nil, fmt.Errorf("a session token is required (set RAMRESUME_TOKEN or use --token)")
	}
	return wizard.NewClient(base, token), nil
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
