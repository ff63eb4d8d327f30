// Package ingest implements the batch ingestion pipeline: mailbox export
// files are parsed, summarized and categorized by the completion backend,
// embedded, and upserted into the document store.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mailsearch/internal/emails"
	"mailsearch/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CompletionClient is the summarize/categorize backend.
type CompletionClient interface {
	Complete(ctx context.Context, messages []models.ConversationTurn, deterministic bool) (string, error)
}

// Embedder produces the vector fields of each record.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// DocumentStore receives the finished records.
type DocumentStore interface {
	Upsert(ctx context.Context, record models.EmailRecord) error
}

// Stats summarizes one pipeline run.
type Stats struct {
	FilesFound int
	Ingested   int
	Skipped    int
}

// Pipeline turns mailbox export files into indexed email records.
type Pipeline struct {
	completion CompletionClient
	embedder   Embedder
	store      DocumentStore
	logger     zerolog.Logger
	newID      func() string
}

// New creates an ingestion pipeline.
func New(completion CompletionClient, embedder Embedder, store DocumentStore, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		completion: completion,
		embedder:   embedder,
		store:      store,
		logger:     logger,
		newID:      uuid.NewString,
	}
}

// Run walks the directory and ingests every EML and mbox file it finds.
// A file that fails to parse or enrich is logged and skipped; the batch
// always continues with the remaining files.
func (p *Pipeline) Run(ctx context.Context, dir string) (Stats, error) {
	var stats Stats

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == "lost+found" {
				return filepath.SkipDir
			}
			return nil
		}

		name := strings.ToLower(info.Name())
		switch {
		case strings.HasSuffix(name, ".eml"):
			stats.FilesFound++
			if _, err := p.IngestEMLFile(ctx, path, ""); err != nil {
				p.logger.Warn().Err(err).Str("file", path).Msg("Skipping file")
				stats.Skipped++
			} else {
				stats.Ingested++
			}
		case strings.HasSuffix(name, ".mbox"):
			stats.FilesFound++
			count, err := p.IngestMBOXFile(ctx, path)
			if err != nil {
				p.logger.Warn().Err(err).Str("file", path).Msg("Skipping file")
				stats.Skipped++
			} else {
				stats.Ingested += count
			}
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("failed to walk directory: %w", err)
	}

	return stats, nil
}

// IngestEMLFile ingests a single EML file. An empty id generates one; a
// caller-supplied id makes re-ingestion idempotent.
func (p *Pipeline) IngestEMLFile(ctx context.Context, path, id string) (*models.EmailRecord, error) {
	parsed, err := emails.ParseEMLFile(path)
	if err != nil {
		return nil, err
	}

	record, err := p.buildRecord(ctx, parsed, id)
	if err != nil {
		return nil, err
	}

	if err := p.store.Upsert(ctx, *record); err != nil {
		return nil, err
	}

	p.logger.Info().Str("id", record.ID).Str("file", path).Msg("Ingested email")
	return record, nil
}

// IngestMBOXFile ingests every message in an mbox archive, skipping the
// messages that fail enrichment.
func (p *Pipeline) IngestMBOXFile(ctx context.Context, path string) (int, error) {
	parsed, err := emails.ParseMBOXFile(path)
	if err != nil {
		return 0, err
	}

	ingested := 0
	for i, email := range parsed {
		record, err := p.buildRecord(ctx, email, "")
		if err != nil {
			p.logger.Warn().Err(err).Str("file", path).Int("message", i+1).Msg("Skipping message")
			continue
		}
		if err := p.store.Upsert(ctx, *record); err != nil {
			p.logger.Warn().Err(err).Str("file", path).Int("message", i+1).Msg("Skipping message")
			continue
		}
		ingested++
	}

	p.logger.Info().Str("file", path).Int("ingested", ingested).Int("total", len(parsed)).Msg("Ingested mbox archive")
	return ingested, nil
}

// enrichment is the summarize+categorize completion output.
type enrichment struct {
	Summary  string `json:"summary"`
	Category string `json:"category"`
}

// buildRecord enriches a parsed email into a complete record with both
// vector fields populated.
func (p *Pipeline) buildRecord(ctx context.Context, parsed *emails.ParsedEmail, id string) (*models.EmailRecord, error) {
	if id == "" {
		id = p.newID()
	}

	enriched, err := p.summarizeAndCategorize(ctx, parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize email: %w", err)
	}

	subjectVector, err := p.embedder.Embed(ctx, parsed.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to embed subject: %w", err)
	}
	bodyVector, err := p.embedder.Embed(ctx, enriched.Summary)
	if err != nil {
		return nil, fmt.Errorf("failed to embed body: %w", err)
	}

	sentTime := parsed.Date.Format("2006-01-02T15:04:05Z")
	return &models.EmailRecord{
		ID:              id,
		From:            parsed.From,
		ToList:          parsed.ToList,
		CcList:          parsed.CcList,
		Subject:         parsed.Subject,
		Important:       parsed.Important,
		Body:            enriched.Summary,
		Category:        normalizeCategory(enriched.Category),
		AttachmentNames: strings.Join(parsed.AttachmentNames, ","),
		ReceivedTime:    sentTime,
		SentTime:        sentTime,
		Size:            parsed.Size,
		SubjectVector:   subjectVector,
		BodyVector:      bodyVector,
	}, nil
}

// summarizeAndCategorize asks the completion backend for a JSON object with
// a body summary and one of the fixed categories.
func (p *Pipeline) summarizeAndCategorize(ctx context.Context, parsed *emails.ParsedEmail) (*enrichment, error) {
	prompt := fmt.Sprintf(
		"Summarize the email content and categorize the email into one of the following "+
			"['Urgent: Emails that require immediate attention or action. "+
			"Projects: Emails related to specific projects or tasks, including updates, progress reports, and deliverables. "+
			"Meetings: Emails about scheduling, agendas, and minutes of meetings. "+
			"Internal: Emails from within the organization, such as announcements, newsletters, and internal memos. "+
			"External: Emails from clients, partners, suppliers, or other external parties. "+
			"Admin: Emails related to administrative matters, human resources, policies, and compliance.']. "+
			"The output should be in JSON format with 'summary' and 'category' as keys:\n%s", parsed.Body)

	reply, err := p.completion.Complete(ctx, []models.ConversationTurn{
		{Role: models.RoleUser, Content: prompt},
	}, true)
	if err != nil {
		return nil, err
	}

	var result enrichment
	if err := json.Unmarshal([]byte(reply), &result); err != nil {
		return nil, fmt.Errorf("malformed summarization reply: %w", err)
	}
	if result.Summary == "" {
		return nil, fmt.Errorf("summarization reply is missing a summary")
	}

	return &result, nil
}

// normalizeCategory maps the completion's category onto the fixed set,
// defaulting to External for anything unrecognized.
func normalizeCategory(category string) string {
	for _, known := range models.Categories {
		if strings.EqualFold(strings.TrimSpace(category), known) {
			return known
		}
	}
	return models.CategoryExternal
}
