// Package llm talks to Gemini for embeddings and opening-line generation.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// FallbackOpeningLine is returned whenever generation fails.
const FallbackOpeningLine = "I noticed your team is doing some interesting work lately."

var ErrNoEmbedding = errors.New("no embeddings returned")

// Embedder turns text into a fixed-size vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces free text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client wraps a genai.Client for both concerns.
type Client struct {
	genai           *genai.Client
	generationModel string
	embeddingModel  string
	dim             int32
}

var (
	_ Embedder  = (*Client)(nil)
	_ Generator = (*Client)(nil)
)

func NewClient(ctx context.Context, apiKey, generationModel, embeddingModel string, dim int) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Client{
		genai:           c,
		generationModel: generationModel,
		embeddingModel:  embeddingModel,
		dim:             int32(dim),
	}, nil
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	dim := c.dim
	result, err := c.genai.Models.EmbedContent(ctx,
		c.embeddingModel,
		genai.Text(text),
		&genai.EmbedContentConfig{OutputDimensionality: &dim},
	)
	if err != nil {
		return nil, fmt.Errorf("GenAI embed failed: %w", err)
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, ErrNoEmbedding
	}
	return result.Embeddings[0].Values, nil
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.genai.Models.GenerateContent(ctx, c.generationModel, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	return resp.Text(), nil
}

// OpeningLineWriter builds the sales prompt and degrades to the fallback line.
type OpeningLineWriter struct {
	Generator Generator
	Log       zerolog.Logger
}

// GenerateOpeningLine never fails; errors and empty answers yield FallbackOpeningLine.
func (w *OpeningLineWriter) GenerateOpeningLine(ctx context.Context, prospectName, companyName, scrapedContext string) string {
	if w.Generator == nil {
		return FallbackOpeningLine
	}

	out, err := w.Generator.Generate(ctx, BuildOpeningPrompt(prospectName, companyName, scrapedContext))
	if err != nil {
		w.Log.Error().Err(err).Str("company", companyName).Msg("❌ Gemini generation error")
		return FallbackOpeningLine
	}

	line := strings.TrimSpace(out)
	if line == "" {
		w.Log.Warn().Str("company", companyName).Msg("⚠️ Gemini returned an empty opening line")
		return FallbackOpeningLine
	}
	return line
}

// BuildOpeningPrompt renders the single-line opener prompt.
func BuildOpeningPrompt(prospectName, companyName, scrapedContext string) string {
	var b strings.Builder
	b.WriteString("You are an expert B2B Sales Development Representative.\n")
	fmt.Fprintf(&b, "Write a single, highly personalized opening line for a cold email to %s at %s.\n\n", prospectName, companyName)
	b.WriteString("Use the following recent information scraped from their company website:\n")
	b.WriteString(scrapedContext)
	b.WriteString("\n\nCRITICAL RULES:\n")
	b.WriteString("1. Keep it under 2 sentences (Maximum 40 words).\n")
	b.WriteString("2. Do NOT use generic praise (e.g., \"I love your work\").\n")
	b.WriteString("3. Mention one specific fact, product, or news item from the context provided.\n")
	b.WriteString("4. Write it peer-to-peer, like a casual note rather than a vendor pitch.\n")
	b.WriteString("5. DO NOT include a greeting (like \"Hi Name,\") or a sign-off. Just the line itself.\n")
	return b.String()
}
