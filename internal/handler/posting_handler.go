package handler

import (
	"github.com/gofiber/fiber/v2"

	"hirecircle/internal/domain"
	"hirecircle/internal/middleware"
	"hirecircle/internal/service/posting"
)

type PostingHandler struct {
	postingService posting.Service
}

func NewPostingHandler(postingService posting.Service) *PostingHandler {
	return &PostingHandler{postingService: postingService}
}

func (h *PostingHandler) Create(c *fiber.Ctx) error {
	var input domain.CreatePostingInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	p, err := h.postingService.CreatePosting(c.UserContext(), middleware.GetSession(c), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *PostingHandler) ListOpen(c *fiber.Ctx) error {
	postings, err := h.postingService.ListOpenPostings(c.UserContext(), middleware.GetSession(c))
	return respondListing(c, postings, err)
}

func (h *PostingHandler) ListMine(c *fiber.Ctx) error {
	postings, err := h.postingService.ListOwnPostings(c.UserContext(), middleware.GetSession(c))
	return respondListing(c, postings, err)
}

func (h *PostingHandler) Get(c *fiber.Ctx) error {
	p, err := h.postingService.GetPosting(c.UserContext(), middleware.GetSession(c), c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(p)
}

func (h *PostingHandler) Close(c *fiber.Ctx) error {
	p, err := h.postingService.ClosePosting(c.UserContext(), middleware.GetSession(c), c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(p)
}
