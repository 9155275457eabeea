package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/ray-assessment/internal/server"
)

var (
	servePort           int
	serveItemBank       string
	serveBankSchema     string
	serveDynamic        bool
	serveGateOverride   bool
	serveVerboseLogging bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for the assessment run lifecycle.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveItemBank, "item-bank", "data/item_bank.json", "Path to the item bank JSON file")
	serveCmd.Flags().StringVar(&serveBankSchema, "bank-schema", "schemas/item_bank.schema.json", "Path to the item bank JSON Schema")
	serveCmd.Flags().BoolVar(&serveDynamic, "dynamic-selection", false, "History-aware item selection for retakes")
	serveCmd.Flags().BoolVar(&serveGateOverride, "entitlement-override", false, "Bypass the billing gate (operator use)")
	serveCmd.Flags().BoolVarP(&serveVerboseLogging, "verbose", "v", false, "Enable debug-level logging")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	logger, err := newLogger(serveVerboseLogging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	srv, err := server.New(server.Config{
		Port:                servePort,
		DatabaseURL:         databaseURL,
		ItemBankPath:        serveItemBank,
		BankSchemaPath:      serveBankSchema,
		DynamicSelection:    serveDynamic,
		EntitlementOverride: serveGateOverride,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
