package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/cards/pkg/card"
)

var (
	searchToolName    = "search_cards"
	searchDescription = "Search debate cards by semantic similarity. Returns one page of up to 25 cards, most relevant first, with their side, topic and vote counts."

	getToolName    = "get_card"
	getDescription = "Fetch a single debate card by its id."
)

// SearchInput represents the input arguments for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the text to find related debate cards for"`
	Page  int    `json:"page,omitempty" jsonschema:"1-based result page (default: 1)"`
}

// GetInput represents the input arguments for the get tool.
type GetInput struct {
	ID string `json:"id" jsonschema:"the card id (a UUID)"`
}

// CardResult is a flattened card for tool output.
type CardResult struct {
	ID        string  `json:"id"`
	Content   string  `json:"content"`
	Side      string  `json:"side"`
	Topic     string  `json:"topic"`
	Link      string  `json:"link,omitempty"`
	OwnerID   string  `json:"owner_id,omitempty"`
	Upvotes   int64   `json:"upvotes"`
	Downvotes int64   `json:"downvotes"`
	Votes     int64   `json:"votes"`
	Score     float32 `json:"score,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// SearchOutput represents the output of the search tool.
type SearchOutput struct {
	Query   string       `json:"query"`
	Page    int          `json:"page"`
	Results []CardResult `json:"results"`
	Count   int          `json:"count"`
}

// handleSearch processes a search request.
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	logger := s.config.Logger

	page := input.Page
	if page <= 0 {
		page = 1
	}

	logger.Debug("MCP search request",
		"query", input.Query,
		"page", page,
	)

	cards, err := s.config.Cards.Search(ctx, input.Query, page)
	if err != nil {
		logger.Error("failed to search cards", "error", err)
		return toolError("Failed to search cards: %v", err), SearchOutput{
			Query:   input.Query,
			Page:    page,
			Results: []CardResult{},
		}, nil
	}

	results := make([]CardResult, 0, len(cards))
	for _, c := range cards {
		r := toResult(c.Card)
		r.Score = c.Score
		results = append(results, r)
	}

	output := SearchOutput{
		Query:   input.Query,
		Page:    page,
		Results: results,
		Count:   len(results),
	}
	return withJSON(output), output, nil
}

// handleGet processes a lookup request.
func (s *Server) handleGet(ctx context.Context, _ *mcp.CallToolRequest, input GetInput) (*mcp.CallToolResult, CardResult, error) {
	got, err := s.config.Cards.Get(ctx, input.ID)
	if err != nil {
		s.config.Logger.Debug("MCP get failed", "card_id", input.ID, "error", err)
		return toolError("Failed to get card %s: %v", input.ID, err), CardResult{}, nil
	}

	output := toResult(got.Card)
	return withJSON(output), output, nil
}

func toResult(c card.Card) CardResult {
	r := CardResult{
		ID:        c.ID,
		Content:   c.Content,
		Side:      c.Side,
		Topic:     c.Topic,
		OwnerID:   c.OwnerID,
		Upvotes:   c.Upvotes,
		Downvotes: c.Downvotes,
		Votes:     c.Votes,
	}
	if c.Link != nil {
		r.Link = *c.Link
	}
	if c.CreatedAt != nil {
		r.CreatedAt = c.CreatedAt.UTC().Format(time.RFC3339)
	}
	return r
}

// withJSON mirrors structured output as a text block for clients that only
// read content.
func withJSON(v any) *mcp.CallToolResult {
	raw, err := json.Marshal(v)
	if err != nil {
		return toolError("Failed to serialize results: %v", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(raw)},
		},
	}
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}
