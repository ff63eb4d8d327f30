package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"mailsearch/internal/config"
	"mailsearch/internal/cosmos"
	"mailsearch/internal/ingest"
	"mailsearch/internal/openai"
)

func main() {
	// Parse command line flags
	dirPath := flag.String("dir", "", "Directory containing EML/mbox files (defaults to EMAIL_IMPORT_PATH)")
	emlPath := flag.String("eml", "", "Path to a single EML file")
	mboxPath := flag.String("mbox", "", "Path to a single mbox file")
	recordID := flag.String("id", "", "Fixed record id for a single EML import (re-import overwrites in place)")
	flag.Parse()

	// Load configuration
	cfg := config.Load()

	// Setup logger
	logger := cfg.SetupLogger()

	aiClient, err := openai.NewClient(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create OpenAI client")
	}

	container, err := cosmos.NewContainer(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Cosmos DB")
	}

	pipeline := ingest.New(aiClient, aiClient, container, logger)
	ctx := context.Background()

	switch {
	case *emlPath != "":
		if !strings.HasSuffix(strings.ToLower(*emlPath), ".eml") {
			logger.Fatal().Str("file", *emlPath).Msg("Invalid file type, expected .eml")
		}
		record, err := pipeline.IngestEMLFile(ctx, *emlPath, *recordID)
		if err != nil {
			logger.Fatal().Err(err).Str("file", *emlPath).Msg("Failed to ingest EML file")
		}
		fmt.Printf("Ingested 1 email (id %s)\n", record.ID)

	case *mboxPath != "":
		count, err := pipeline.IngestMBOXFile(ctx, *mboxPath)
		if err != nil {
			logger.Fatal().Err(err).Str("file", *mboxPath).Msg("Failed to ingest mbox file")
		}
		fmt.Printf("Ingested %d emails from mbox archive\n", count)

	default:
		dir := *dirPath
		if dir == "" {
			dir = cfg.EmailImportPath
		}
		if dir == "" {
			fmt.Println("Usage:")
			fmt.Println("  Ingest a directory:   ingest-emails -dir /path/to/exports")
			fmt.Println("  Ingest one EML file:  ingest-emails -eml /path/to/file.eml [-id fixed-id]")
			fmt.Println("  Ingest an mbox file:  ingest-emails -mbox /path/to/file.mbox")
			os.Exit(1)
		}

		stats, err := pipeline.Run(ctx, dir)
		if err != nil {
			logger.Fatal().Err(err).Str("dir", dir).Msg("Ingestion run failed")
		}
		fmt.Printf("Ingestion complete: %d files found, %d emails ingested, %d files skipped\n",
			stats.FilesFound, stats.Ingested, stats.Skipped)
	}
}
