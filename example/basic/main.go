package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/ragengine"
	"github.com/siherrmann/ragengine/model"
)

const sampleContent = `Mangoes are juicy stone fruits produced by tropical trees. They are native to South Asia. India is the largest producer of mangoes in the world.

The mango tree can grow up to forty metres tall. Its fruit is eaten fresh, dried or made into juice!

Apples grow best in regions with cold winters. There are more than seven thousand apple varieties.`

func main() {
	ctx := context.Background()

	// In-memory collection, embeddings and answers from a local Ollama server
	config := model.DefaultEngineConfig()
	engine, err := ragengine.NewEngineFromConfig(ctx, config)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	defer engine.Close()

	fmt.Println("Ingesting sample content...")
	n, err := engine.AddData(ctx, sampleContent, true)
	if err != nil {
		log.Fatalf("Failed to add data: %v", err)
	}
	fmt.Printf("Stored %d chunks\n", n)

	queryText := "Where do mangoes come from?"
	fmt.Printf("\nQuerying: %s\n", queryText)

	result, err := engine.QueryData(ctx, queryText, 5)
	if err != nil {
		log.Fatalf("Failed to query: %v", err)
	}
	for i := range result.IDs {
		fmt.Printf("  %.4f  %s\n", result.Distances[i], result.Documents[i])
	}

	fmt.Println("\nAnswer:")
	answer, err := engine.Ask(ctx, queryText, nil)
	if err != nil {
		log.Fatalf("Failed to ask: %v", err)
	}
	fmt.Println(answer)

	fmt.Println("\nStreamed answer to an unrelated question:")
	stream, err := engine.AskStream(ctx, "Who won the football world cup in 2014?", nil)
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
}
