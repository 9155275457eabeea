// Package main provides the entry point for the ray assessment platform CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ray_assess",
	Short: "Ray Assessment Platform",
	Long:  "Ray Assessment runs self-assessments against a versioned item bank, scores them into nine-ray profiles with tamper-evident signatures, and serves the run lifecycle via REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
