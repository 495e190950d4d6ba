// Package rag ties the embedder to the vector store.
package rag

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/unclebandit/coldemail-backend/internal/llm"
	"github.com/unclebandit/coldemail-backend/internal/vectorstore"
)

// ResearchQuery is the retrieval question used by the research pipeline.
const ResearchQuery = "What is a recent company news, product launch, or key achievement?"

type Service struct {
	Embedder llm.Embedder
	Store    vectorstore.VectorStore
	Log      zerolog.Logger
}

// StoreCompanyData embeds the scraped text and replaces the prospect's snapshot.
func (s *Service) StoreCompanyData(ctx context.Context, ownerID, prospectID int, company, text string) error {
	s.Log.Info().Str("company", company).Int("prospect_id", prospectID).Msg("🧠 Generating embeddings")

	vector, err := s.Embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed company data: %w", err)
	}

	return s.Store.Upsert(ctx, vectorstore.Record{
		ProspectID: prospectID,
		OwnerID:    ownerID,
		Company:    company,
		Text:       text,
		Embedding:  vector,
	})
}

// SearchCompanyData returns the best matching snapshot text for the owner's
// company, or "" when nothing is stored.
func (s *Service) SearchCompanyData(ctx context.Context, ownerID int, company, query string) (string, error) {
	s.Log.Info().Str("company", company).Str("query", query).Msg("🔎 Searching vector store")

	vector, err := s.Embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	matches, err := s.Store.Search(ctx, ownerID, company, vector, 1)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}
	return matches[0].Text, nil
}

// DeleteCompanyData drops the prospect's snapshot.
func (s *Service) DeleteCompanyData(ctx context.Context, ownerID, prospectID int) error {
	return s.Store.DeleteByProspect(ctx, ownerID, prospectID)
}
