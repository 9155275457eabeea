package main

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/ray-assessment/internal/bank"
	"github.com/jonathan/ray-assessment/internal/db"
	"github.com/jonathan/ray-assessment/internal/observability"
	"github.com/jonathan/ray-assessment/internal/run"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-verify stored signature pairs",
	Long:  "Recomputes input and output hashes for completed runs from their stored responses and profiles and compares them against the stored signature pairs. Exits non-zero if any run fails verification.",
	RunE:  runVerify,
}

var (
	verifyRunID      string
	verifyAll        bool
	verifyItemBank   string
	verifyBankSchema string
	verifyWorkers    int
)

func init() {
	verifyCmd.Flags().StringVar(&verifyRunID, "run", "", "Verify a single run by ID")
	verifyCmd.Flags().BoolVar(&verifyAll, "all", false, "Verify every completed run")
	verifyCmd.Flags().StringVar(&verifyItemBank, "item-bank", "data/item_bank.json", "Path to the item bank JSON file")
	verifyCmd.Flags().StringVar(&verifyBankSchema, "bank-schema", "schemas/item_bank.schema.json", "Path to the item bank JSON Schema")
	verifyCmd.Flags().IntVar(&verifyWorkers, "workers", 4, "Concurrent verifications when using --all")
	verifyCmd.MarkFlagsOneRequired("run", "all")
	verifyCmd.MarkFlagsMutuallyExclusive("run", "all")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	b, err := bank.Load(verifyItemBank, verifyBankSchema)
	if err != nil {
		return fmt.Errorf("failed to load item bank: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	service := run.NewService(database, b, logger, run.Options{})
	printer := observability.NewPrinter(os.Stdout)

	if verifyRunID != "" {
		runID, err := uuid.Parse(verifyRunID)
		if err != nil {
			return fmt.Errorf("invalid run ID %s: %w", verifyRunID, err)
		}
		report, err := service.VerifyRun(ctx, runID)
		if err != nil {
			return err
		}
		printer.PrintVerification(report)
		if !report.Match {
			return fmt.Errorf("run %s failed verification", runID)
		}
		return nil
	}

	runIDs, err := service.ListCompletedRunIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list completed runs: %w", err)
	}
	if len(runIDs) == 0 {
		fmt.Println("No completed runs to verify")
		return nil
	}

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(verifyWorkers)
	for _, runID := range runIDs {
		g.Go(func() error {
			report, err := service.VerifyRun(gctx, runID)
			if err != nil {
				return fmt.Errorf("run %s: %w", runID, err)
			}
			if !report.Match {
				failed.Add(1)
				printer.PrintVerification(report)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d completed runs failed verification", n, len(runIDs))
	}
	fmt.Printf("All %d completed runs verified\n", len(runIDs))
	return nil
}
