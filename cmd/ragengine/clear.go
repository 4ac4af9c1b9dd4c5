package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all chunks from the collection",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	engine, _, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	err = engine.ClearCollection(ctx)
	if err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", engine.Collection.Name())
	return nil
}
