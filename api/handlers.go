package api

import (
	"fmt"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/cards/pkg/card"
)

// CreateRequest is the body of POST /card. Pointer fields distinguish a
// missing field from an empty string.
type CreateRequest struct {
	Content *string `json:"content" validate:"required"`
	Side    *string `json:"side" validate:"required"`
	Topic   *string `json:"topic" validate:"required"`
	Link    *string `json:"link,omitempty"`
}

// SearchRequest is the body of POST /card/search.
type SearchRequest struct {
	Content *string `json:"content" validate:"required"`
}

// VoteRequest is the body of POST /card/vote.
type VoteRequest struct {
	CardID *string `json:"card_id" validate:"required"`
	Vote   *bool   `json:"vote" validate:"required"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleCreate stores a new card and points the Location header at it.
func (s *Server) handleCreate(c *fiber.Ctx) error {
	var req CreateRequest
	if err := s.parse(c, &req); err != nil {
		return err
	}

	id, err := s.cards.Create(c.Context(), card.NewCard{
		Content: *req.Content,
		Side:    *req.Side,
		Topic:   *req.Topic,
		Link:    req.Link,
		OwnerID: ownerOf(c),
	})
	if err != nil {
		return err
	}

	c.Location("/card/" + url.PathEscape(id))
	return c.SendStatus(fiber.StatusNoContent)
}

// handleSearch returns one page of cards ranked by similarity to the body
// content. The page defaults to 1 when the path does not name one.
func (s *Server) handleSearch(c *fiber.Ctx) error {
	page := 1
	if c.Params("page") != "" {
		p, err := c.ParamsInt("page")
		if err != nil || p < 1 {
			return fmt.Errorf("%w: %q", card.ErrInvalidPage, c.Params("page"))
		}
		page = p
	}

	var req SearchRequest
	if err := s.parse(c, &req); err != nil {
		return err
	}

	results, err := s.cards.Search(c.Context(), *req.Content, page)
	if err != nil {
		return err
	}
	if results == nil {
		results = []card.ScoredCard{}
	}
	return c.JSON(results)
}

// handleVote adds one vote to a card.
func (s *Server) handleVote(c *fiber.Ctx) error {
	var req VoteRequest
	if err := s.parse(c, &req); err != nil {
		return err
	}

	if err := s.cards.Vote(c.Context(), *req.CardID, *req.Vote); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleGet returns a single card by id.
func (s *Server) handleGet(c *fiber.Ctx) error {
	got, err := s.cards.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(got)
}

// parse decodes the JSON body into v and validates it.
func (s *Server) parse(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return s.validate.Struct(v)
}
