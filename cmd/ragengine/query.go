package main

import (
	"encoding/json"
	"fmt"

	"github.com/siherrmann/ragengine/model"
	"github.com/spf13/cobra"
)

var (
	queryNResults int
	queryJSON     bool
)

var queryCmd = &cobra.Command{
	Use:   "query [query]",
	Short: "Show the chunks nearest to a query",
	Long: `Lists the nearest chunks with their cosine distance, without filtering
and without calling the generator.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryNResults, "n-results", "n", model.DefaultNResults, "maximum number of results")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	engine, _, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()
	out := cmd.OutOrStdout()

	result, err := engine.QueryData(ctx, args[0], queryNResults)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if result.Len() == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}

	for i := range result.IDs {
		fmt.Fprintf(out, "  [%d] %.4f %s\n", i+1, result.Distances[i], result.IDs[i])
		fmt.Fprintf(out, "      %s\n", result.Documents[i])
	}
	return nil
}
