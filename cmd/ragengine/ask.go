package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	askStream      bool
	askMaxDistance float64
	askNResults    int
)

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Answer a question from the collection",
	Long: `Retrieves the chunks closest to the question, drops those at or beyond the
max distance and asks the generator to answer from the remaining context.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVarP(&askStream, "stream", "s", false, "print the answer while it is generated")
	askCmd.Flags().Float64Var(&askMaxDistance, "max-distance", -1, "cosine distance limit, negative uses the config value")
	askCmd.Flags().IntVarP(&askNResults, "n-results", "n", 0, "nearest chunks to consider, 0 uses the config value")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	engine, config, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()
	out := cmd.OutOrStdout()

	askConfig := config.Ask
	if askMaxDistance >= 0 {
		askConfig.MaxDistance = askMaxDistance
	}
	if askNResults > 0 {
		askConfig.NResults = askNResults
	}

	if !askStream {
		answer, err := engine.Ask(ctx, args[0], &askConfig)
		if err != nil {
			return fmt.Errorf("ask failed: %w", err)
		}
		fmt.Fprintln(out, answer)
		return nil
	}

	stream, err := engine.AskStream(ctx, args[0], &askConfig)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	for fragment, err := range stream {
		if err != nil {
			fmt.Fprintln(out)
			return fmt.Errorf("generation failed: %w", err)
		}
		fmt.Fprint(out, fragment)
	}
	fmt.Fprintln(out)
	return nil
}
