package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const ownerLocal = "owner_id"

// observe records request counts and latency against the matched route
// pattern so ids do not explode label cardinality.
func (s *Server) observe(c *fiber.Ctx) error {
	start := time.Now()

	if err := c.Next(); err != nil {
		if herr := s.handleError(c, err); herr != nil {
			return herr
		}
	}

	s.config.Metrics.ObserveRequest(c.Method(), c.Route().Path, c.Response().StatusCode(), time.Since(start))
	return nil
}

// authenticate resolves the card owner from an optional bearer token.
// Missing tokens are anonymous; present but invalid ones are rejected.
func (s *Server) authenticate(c *fiber.Ctx) error {
	owner, err := s.config.Auth.OwnerFromHeader(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}
	c.Locals(ownerLocal, owner)
	return c.Next()
}

func ownerOf(c *fiber.Ctx) string {
	owner, _ := c.Locals(ownerLocal).(string)
	return owner
}
