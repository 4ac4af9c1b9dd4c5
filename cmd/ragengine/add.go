package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/siherrmann/ragengine/model"
	"github.com/spf13/cobra"
)

var (
	addFiles  []string
	addUpsert bool
)

var addCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Add text or files to the collection",
	Long: `Splits the text into chunks and stores every unique chunk in the collection.
Without --upsert, adding a chunk that is already stored fails and nothing is written.
PDF files are converted to plain text. Without --config the collection is stored
in ~/.ragengine/data.`,
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringSliceVarP(&addFiles, "file", "f", nil, "file to add, can be repeated")
	addCmd.Flags().BoolVar(&addUpsert, "upsert", false, "replace chunks that are already stored")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && len(addFiles) == 0 {
		return errors.New("nothing to add, pass text or --file")
	}

	ctx := cmd.Context()
	engine, _, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	var sources []*model.Source
	if len(args) > 0 {
		sources = append(sources, model.NewSource(strings.Join(args, " ")))
	}
	for _, path := range addFiles {
		source, err := model.NewSourceFromFile(path, nil)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		sources = append(sources, source)
	}

	n, err := engine.AddSources(ctx, addUpsert, sources...)
	if err != nil {
		return fmt.Errorf("add failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added %d chunks to %s\n", n, engine.Collection.Name())
	return nil
}
