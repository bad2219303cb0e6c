package handler

import (
	"github.com/gofiber/fiber/v2"

	"hirecircle/internal/domain"
	"hirecircle/internal/middleware"
	"hirecircle/internal/service/application"
	"hirecircle/internal/service/resume"
)

type ApplicationHandler struct {
	applicationService application.Service
	resumeService      resume.Service
}

func NewApplicationHandler(applicationService application.Service, resumeService resume.Service) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService: applicationService,
		resumeService:      resumeService,
	}
}

func (h *ApplicationHandler) Submit(c *fiber.Ctx) error {
	var input domain.SubmitApplicationInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	app, err := h.applicationService.Submit(c.UserContext(), middleware.GetSession(c), c.Params("id"), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(app)
}

// List returns the employer's incoming applications or the employee's own,
// depending on the caller's role.
func (h *ApplicationHandler) List(c *fiber.Ctx) error {
	session := middleware.GetSession(c)

	if middleware.GetCurrentUserRole(c) == domain.RoleEmployer {
		views, err := h.applicationService.ListForEmployer(c.UserContext(), session)
		return respondListing(c, views, err)
	}

	views, err := h.applicationService.ListForApplicant(c.UserContext(), session)
	return respondListing(c, views, err)
}

func (h *ApplicationHandler) Get(c *fiber.Ctx) error {
	app, err := h.applicationService.Get(c.UserContext(), middleware.GetSession(c), c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(app)
}

func (h *ApplicationHandler) UpdateStatus(c *fiber.Ctx) error {
	var input domain.TransitionInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	app, err := h.applicationService.Transition(c.UserContext(), middleware.GetSession(c), c.Params("id"), input.Status)
	if err != nil {
		return err
	}

	return c.JSON(app)
}

func (h *ApplicationHandler) UploadResume(c *fiber.Ctx) error {
	if h.resumeService == nil {
		return middleware.ServiceUnavailable("Resume storage is not available")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return middleware.BadRequest("File is required")
	}

	reader, err := file.Open()
	if err != nil {
		return middleware.BadRequest("Failed to read file")
	}
	defer reader.Close()

	app, err := h.resumeService.Attach(c.UserContext(), middleware.GetSession(c), c.Params("id"), resume.Upload{
		FileName:    file.Filename,
		Size:        file.Size,
		ContentType: file.Header.Get("Content-Type"),
		Reader:      reader,
	})
	if err != nil {
		return err
	}

	return c.JSON(app)
}

func (h *ApplicationHandler) GetResume(c *fiber.Ctx) error {
	if h.resumeService == nil {
		return middleware.ServiceUnavailable("Resume storage is not available")
	}

	download, err := h.resumeService.DownloadURL(c.UserContext(), middleware.GetSession(c), c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(download)
}
