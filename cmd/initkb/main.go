// Command initkb builds the knowledge base index once: it loads the
// corpus CSV, embeds every entry, and populates the Qdrant collection.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/aibroker/support-assistant/engine/corpus"
	"github.com/aibroker/support-assistant/engine/index"
	"github.com/aibroker/support-assistant/engine/semantic"
	"github.com/aibroker/support-assistant/pkg/ollama"
)

func main() {
	_ = godotenv.Load()

	var (
		corpusPath  = flag.String("corpus", "./data/knowledge_base.csv", "knowledge base CSV path")
		ollamaURL   = flag.String("ollama", "http://localhost:11434", "Ollama base URL")
		ollamaModel = flag.String("model", "nomic-embed-text", "Ollama embedding model")
		qdrantAddr  = flag.String("qdrant", "localhost:6334", "Qdrant gRPC address")
		collection  = flag.String("collection", "support_kb", "Qdrant collection name")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := semantic.New(*qdrantAddr, *collection)
	if err != nil {
		logger.Error("qdrant connect failed", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	embedder := ollama.NewEmbedClient(*ollamaURL, *ollamaModel)
	loader := corpus.NewLoader(*corpusPath, logger)
	indexer := index.New(loader, embedder, store, logger)

	if err := indexer.Rebuild(ctx); err != nil {
		logger.Error("index build failed", "err", err)
		os.Exit(1)
	}

	info, err := indexer.Info()
	if err != nil {
		logger.Error("corpus info failed", "err", err)
		os.Exit(1)
	}

	fmt.Printf("knowledge base indexed: %d entries\n", info.TotalEntries)
	for category, count := range info.Categories {
		fmt.Printf("  %s: %d\n", category, count)
	}
}
