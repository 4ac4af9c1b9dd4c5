package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/siherrmann/ragengine"
	"github.com/siherrmann/ragengine/model"
)

const kjvRepoURL = "https://raw.githubusercontent.com/arleym/kjv-markdown/master"

// List of KJV books to download
var kjvBooks = []string{
	"01 - Genesis - KJV.md",
	// "02 - Exodus - KJV.md", "03 - Leviticus - KJV.md",
	// "04 - Numbers - KJV.md", "05 - Deuteronomy - KJV.md",
}

var questions = []string{
	"What did God create on the first day?",
	"Why did Cain kill Abel?",
	"How many years did Methuselah live?",
}

func downloadBook(bookName string, outputDir string) (string, error) {
	// URL-encode the filename to handle spaces
	encodedName := url.PathEscape(bookName)
	downloadURL := fmt.Sprintf("%s/%s", kjvRepoURL, encodedName)
	resp, err := http.Get(downloadURL)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", bookName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download %s: status %d", bookName, resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", bookName, err)
	}

	outputPath := filepath.Join(outputDir, bookName)
	if err := os.WriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", bookName, err)
	}

	return outputPath, nil
}

func main() {
	ctx := context.Background()

	// Chunks persist in ./data between runs
	config := model.DefaultEngineConfig()
	config.CollectionName = "kjv"
	config.Store.Type = model.StoreTypeSQLite
	config.PersistPath = "./data"

	engine, err := ragengine.NewEngineFromConfig(ctx, config)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	defer engine.Close()

	count, err := engine.Collection.Count(ctx)
	if err != nil {
		log.Fatalf("Failed to count chunks: %v", err)
	}

	if count == 0 {
		tmpDir, err := os.MkdirTemp("", "kjv-books-*")
		if err != nil {
			log.Fatalf("Failed to create temp directory: %v", err)
		}
		defer os.RemoveAll(tmpDir)

		fmt.Println("Downloading KJV books from GitHub...")
		var sources []*model.Source
		for _, book := range kjvBooks {
			path, err := downloadBook(book, tmpDir)
			if err != nil {
				log.Fatalf("Failed to download book: %v", err)
			}

			source, err := model.NewSourceFromFile(path, model.Metadata{"translation": "KJV"})
			if err != nil {
				log.Fatalf("Failed to read book: %v", err)
			}
			sources = append(sources, source)
			fmt.Printf("  Downloaded %s\n", book)
		}

		fmt.Println("Ingesting books, this takes a while...")
		n, err := engine.AddSources(ctx, true, sources...)
		if err != nil {
			log.Fatalf("Failed to add books: %v", err)
		}
		fmt.Printf("Stored %d chunks\n", n)
	} else {
		fmt.Printf("Using %d stored chunks\n", count)
	}

	for _, question := range questions {
		fmt.Printf("\nQ: %s\nA: ", question)
		stream, err := engine.AskStream(ctx, question, nil)
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
}
