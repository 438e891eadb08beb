package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show remaining generations and the next reset date",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		u, err := client.Usage(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "remaining: %d\nresets:    %s\ntotal:     %d\n",
			u.RemainingUses, u.ResetDate.Format(time.DateOnly), u.TotalScans)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past scans, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		scans, err := client.History(cmd.Context())
		if err != nil {
			return err
		}
		if len(scans) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no scans yet")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tTITLE\tCOMPANY\tKEYWORDS\tCOMPLETE")
		for _, s := range scans {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n",
				s.CreatedAt.Format(time.DateOnly), s.JobTitle, s.Company, strings.Join(s.Keywords, ", "), s.IsComplete)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(usageCmd, historyCmd)
}
