package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/siherrmann/ragengine"
	"github.com/siherrmann/ragengine/model"
	"github.com/spf13/cobra"
)

var configPath string

// newEngine is replaced in tests.
var newEngine = ragengine.NewEngineFromConfig

var rootCmd = &cobra.Command{
	Use:   "ragengine",
	Short: "Retrieval augmented question answering over your own text",
	Long: `ragengine splits text into overlapping chunks, stores their embeddings in a
collection and answers questions with a language model using the closest chunks
as context.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads --config. Without it, chunks persist in SQLite under
// ~/.ragengine/data so separate invocations share one collection.
func loadConfig() (*model.EngineConfig, error) {
	var config *model.EngineConfig
	if configPath == "" {
		config = model.DefaultEngineConfig()
		config.Store.Type = model.StoreTypeSQLite
		config.PersistPath = defaultDataDir()
	} else {
		var err error
		config, err = model.LoadEngineConfig(configPath)
		if err != nil {
			return nil, err
		}
	}

	// Stdout is reserved for command results.
	if config.LogOutput == "" {
		config.LogOutput = model.LogOutputStderr
	}
	return config, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".ragengine", "data")
	}
	return filepath.Join(home, ".ragengine", "data")
}

// openEngine loads the config and opens the engine. The caller closes it.
func openEngine(ctx context.Context) (*ragengine.Engine, *model.EngineConfig, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	engine, err := newEngine(ctx, config)
	if err != nil {
		return nil, nil, err
	}
	return engine, config, nil
}
