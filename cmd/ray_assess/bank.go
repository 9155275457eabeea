package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/ray-assessment/internal/bank"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Item bank utilities",
}

var bankValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate an item bank file",
	Long:  "Validates an item bank JSON file against the item bank schema and the catalog integrity rules (unique IDs, known rays, positive weights).",
	RunE:  runBankValidate,
}

var (
	bankValidateItemBank   string
	bankValidateBankSchema string
)

func init() {
	bankValidateCmd.Flags().StringVar(&bankValidateItemBank, "item-bank", "data/item_bank.json", "Path to the item bank JSON file")
	bankValidateCmd.Flags().StringVar(&bankValidateBankSchema, "bank-schema", "schemas/item_bank.schema.json", "Path to the item bank JSON Schema")
	bankCmd.AddCommand(bankValidateCmd)
	rootCmd.AddCommand(bankCmd)
}

func runBankValidate(_ *cobra.Command, _ []string) error {
	b, err := bank.Load(bankValidateItemBank, bankValidateBankSchema)
	if err != nil {
		return err
	}

	scorable := 0
	for _, rayID := range b.Rays() {
		scorable += len(b.RayItemIDs(rayID))
	}
	fmt.Printf("Item bank %s is valid: %d items (%d scorable across %d rays)\n",
		b.Version(), b.Len(), scorable, len(b.Rays()))
	return nil
}
