// Package cosmos adapts an Azure Cosmos DB NoSQL container to the document
// store interfaces consumed by retrieval and ingestion.
package cosmos

import (
	"context"
	"encoding/json"
	"fmt"

	"mailsearch/internal/config"
	"mailsearch/internal/models"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"github.com/rs/zerolog"
)

// Container wraps a Cosmos container client with raw query execution and
// email record upserts.
type Container struct {
	client *azcosmos.ContainerClient
	logger zerolog.Logger
}

// NewContainer connects to the configured Cosmos account using AAD
// credentials, matching the deployment's managed-identity setup.
func NewContainer(cfg *config.Config, logger zerolog.Logger) (*Container, error) {
	if cfg.CosmosURI == "" {
		return nil, fmt.Errorf("COSMOS_URI environment variable not set")
	}

	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	client, err := azcosmos.NewClient(cfg.CosmosURI, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Cosmos client: %w", err)
	}

	container, err := client.NewContainer(cfg.CosmosDatabase, cfg.CosmosContainer)
	if err != nil {
		return nil, fmt.Errorf("failed to open Cosmos container: %w", err)
	}

	logger.Info().
		Str("database", cfg.CosmosDatabase).
		Str("container", cfg.CosmosContainer).
		Msg("Connected to Cosmos DB")

	return &Container{client: container, logger: logger}, nil
}

// Query executes a query in the Cosmos SQL dialect across all partitions and
// returns the raw field mappings in backend rank order.
func (c *Container) Query(ctx context.Context, query string) ([]map[string]any, error) {
	pager := c.client.NewQueryItemsPager(query, azcosmos.NewPartitionKey(), nil)

	var items []map[string]any
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to execute Cosmos query: %w", err)
		}
		for _, raw := range page.Items {
			var item map[string]any
			if err := json.Unmarshal(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to decode Cosmos item: %w", err)
			}
			items = append(items, item)
		}
	}

	return items, nil
}

// Upsert writes an email record, replacing any existing document with the
// same id.
func (c *Container) Upsert(ctx context.Context, record models.EmailRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal email record: %w", err)
	}

	_, err = c.client.UpsertItem(ctx, azcosmos.NewPartitionKeyString(record.ID), body, nil)
	if err != nil {
		return fmt.Errorf("failed to upsert email record %s: %w", record.ID, err)
	}

	c.logger.Debug().Str("id", record.ID).Msg("Upserted email record")
	return nil
}
