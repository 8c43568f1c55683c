package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rechargeradar",
		Short:         "Scan games, stores and news for gift card demand signals",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(scanCmd())
	root.AddCommand(candidatesCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(reportCmd())
	root.AddCommand(eventsCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func scanCmd() *cobra.Command {
	var (
		sources    []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Collect, rank, summarise and report once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), sources, jsonOutput)
		},
	}

	cmd.Flags().StringSliceVar(&sources, "source", nil, "specific sources to scan (e.g., news,steam,epic)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func candidatesCmd() *cobra.Command {
	var (
		jsonOutput bool
		minScore   float64
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "Show the ranked candidates of the latest scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCandidates(cmd.Context(), jsonOutput, minScore, limit)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "minimum composite score")
	cmd.Flags().IntVar(&limit, "limit", 20, "max candidates to show")
	return cmd
}

func historyCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Compare the latest scan with the previous one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func reportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write a Word report for the latest scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), out)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "report directory (default: from config)")
	return cmd
}

func eventsCmd() *cobra.Command {
	var (
		date       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List calendar events within the next 60 days",
		RunE: func(cmd *cobra.Command, args []string) error {
			at := time.Now()
			if date != "" {
				t, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", date, err)
				}
				at = t
			}
			return runEvents(at, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "reference date as YYYY-MM-DD (default: today)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
