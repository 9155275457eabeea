package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/ray-assessment/internal/bank"
	"github.com/jonathan/ray-assessment/internal/observability"
	"github.com/jonathan/ray-assessment/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a set of responses offline",
	Long:  "Deterministically scores a responses file against the item bank, producing a RayScoreProfile JSON without touching the database. The same input always yields byte-identical output.",
	RunE:  runScore,
}

var (
	scoreResponses  string
	scoreItemBank   string
	scoreBankSchema string
	scoreOutput     string
	scoreVerbose    bool
)

// scoreInput is the on-disk shape of an offline scoring request. When
// ItemIDs is empty the full catalog is assumed.
type scoreInput struct {
	ItemIDs     []string       `json:"item_ids,omitempty"`
	Responses   map[string]int `json:"responses"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreResponses, "responses", "r", "", "Path to input responses JSON file (required)")
	scoreCmd.Flags().StringVar(&scoreItemBank, "item-bank", "data/item_bank.json", "Path to the item bank JSON file")
	scoreCmd.Flags().StringVar(&scoreBankSchema, "bank-schema", "schemas/item_bank.schema.json", "Path to the item bank JSON Schema")
	scoreCmd.Flags().StringVarP(&scoreOutput, "out", "o", "", "Path to output profile JSON file (stdout if omitted)")
	scoreCmd.Flags().BoolVarP(&scoreVerbose, "verbose", "v", false, "Print a formatted profile summary")

	if err := scoreCmd.MarkFlagRequired("responses"); err != nil {
		panic(fmt.Sprintf("failed to mark responses flag as required: %v", err))
	}

	rootCmd.AddCommand(scoreCmd)
}

func runScore(_ *cobra.Command, _ []string) error {
	content, err := os.ReadFile(scoreResponses)
	if err != nil {
		return fmt.Errorf("failed to read responses file %s: %w", scoreResponses, err)
	}

	var input scoreInput
	if err := json.Unmarshal(content, &input); err != nil {
		return fmt.Errorf("failed to unmarshal responses JSON: %w", err)
	}

	b, err := bank.Load(scoreItemBank, scoreBankSchema)
	if err != nil {
		return fmt.Errorf("failed to load item bank: %w", err)
	}

	itemIDs := input.ItemIDs
	if len(itemIDs) == 0 {
		itemIDs = b.ItemIDs()
	}

	profile, err := scoring.Score(scoring.Input{
		Responses:   input.Responses,
		ItemIDs:     itemIDs,
		Bank:        b,
		StartedAt:   input.StartedAt,
		CompletedAt: input.CompletedAt,
	})
	if err != nil {
		return fmt.Errorf("scoring failed: %w", err)
	}

	jsonOutput, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile to JSON: %w", err)
	}

	if scoreOutput == "" {
		fmt.Println(string(jsonOutput))
	} else {
		outputDir := filepath.Dir(scoreOutput)
		if outputDir != "" && outputDir != "." {
			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
			}
		}
		if err := os.WriteFile(scoreOutput, jsonOutput, 0644); err != nil {
			return fmt.Errorf("failed to write profile to output file %s: %w", scoreOutput, err)
		}
		fmt.Printf("Wrote profile to %s\n", scoreOutput)
	}

	if scoreVerbose {
		printer := observability.NewPrinter(os.Stderr)
		printer.PrintProfile(profile)
		printer.PrintDataQuality(&profile.DataQuality)
	}

	return nil
}
