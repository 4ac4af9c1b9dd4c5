package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/siherrmann/ragengine"
	"github.com/siherrmann/ragengine/helper"
	"github.com/siherrmann/ragengine/model"
	"github.com/siherrmann/ragengine/provider/hugot"
	"github.com/siherrmann/ragengine/provider/ollama"
	"github.com/siherrmann/ragengine/store/postgres"
	loadSql "github.com/siherrmann/ragengine/sql"
)

const sampleContent1 = `Mangoes are juicy stone fruits produced by tropical trees. They are native to South Asia.

India is the largest producer of mangoes in the world. The mango is the national fruit of India, Pakistan and the Philippines.

Mango trees can grow up to forty metres tall and live for more than three hundred years.`

const sampleContent2 = `Apples grow best in regions with cold winters.

There are more than seven thousand apple varieties. Apple trees are grafted because seedlings do not keep the traits of their parents.`

func main() {
	ctx := context.Background()

	// Start a test PostgreSQL container with pgvector
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	logger := helper.NewLogger(os.Stdout, slog.LevelInfo)
	db := helper.NewDatabase("ragengine", dbConfig, logger)
	if err := loadSql.Init(db.Instance); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	client, err := postgres.NewClient(db, hugot.DefaultDimensions)
	if err != nil {
		log.Fatalf("Failed to create store client: %v", err)
	}

	// Local ONNX embeddings, answers from Ollama
	embedder, err := hugot.NewEmbedder(hugot.DefaultModel)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	generator := ollama.NewGenerator(ollama.Config{Model: ollama.DefaultChatModel})

	config := model.DefaultEngineConfig()
	config.CollectionName = "fruits"
	engine, err := ragengine.NewEngine(ctx, client, embedder, generator, config)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	defer engine.Close()

	sources := []*model.Source{
		{Title: "Mangoes", Content: sampleContent1, Metadata: model.Metadata{"topic": "tropical fruit"}},
		{Title: "Apples", Content: sampleContent2, Metadata: model.Metadata{"topic": "temperate fruit"}},
	}
	n, err := engine.AddSources(ctx, true, sources...)
	if err != nil {
		log.Fatalf("Failed to add sources: %v", err)
	}
	fmt.Printf("Stored %d chunks\n", n)

	// Exact search is fine for a handful of chunks, large collections profit from an ANN index
	err = client.Documents().ChangeIndexType(ctx, "hnsw", map[string]interface{}{"m": 16, "ef_construction": 64})
	if err != nil {
		log.Fatalf("Failed to change index: %v", err)
	}

	queryText := "How old can mango trees get?"
	fmt.Printf("\nQuerying: %s\n", queryText)

	result, err := engine.QueryData(ctx, queryText, 3)
	if err != nil {
		log.Fatalf("Failed to query: %v", err)
	}
	for i := range result.IDs {
		fmt.Printf("  %.4f [%v] %s\n", result.Distances[i], result.Metadatas[i]["source"], result.Documents[i])
	}

	askConfig := &model.AskConfig{NResults: 10, MaxDistance: 0.6}
	fmt.Println("\nAnswer:")
	stream, err := engine.AskStream(ctx, queryText, askConfig)
	if err != nil {
		log.Fatalf("Failed to ask: %v", err)
	}
	for fragment, err := range stream {
		if err != nil {
			log.Fatalf("Generation failed: %v", err)
		}
		fmt.Print(fragment)
	}
	fmt.Println()

	if err := engine.ClearCollection(ctx); err != nil {
		log.Fatalf("Failed to clear collection: %v", err)
	}
	fmt.Println("\nCollection cleared")
}
