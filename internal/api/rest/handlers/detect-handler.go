package handlers

import (
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/worrakit/vision_service/internal/dto"
	"github.com/worrakit/vision_service/internal/services"
	"github.com/worrakit/vision_service/pkg/utils"
)

const maxImageSize = 12 * 1024 * 1024 // 12MB

type DetectHandler struct {
	svc services.DetectService
}

func NewDetectHandler(svc services.DetectService) *DetectHandler {
	return &DetectHandler{svc: svc}
}

func (h *DetectHandler) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	detect := api.Group("/detect")
	detect.Post("/", h.Detect)
	detect.Post("/ask", h.Ask)
	detect.Get("/history", h.History)
}

// POST /api/detect
// form-data: image=<file>
func (h *DetectHandler) Detect(ctx *fiber.Ctx) error {
	file, err := ctx.FormFile("image")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "image is required"})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowed := map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}
	if !allowed[ext] {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "only jpg/jpeg/png/webp allowed"})
	}

	if file.Size > maxImageSize {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "file too large (max 12MB)"})
	}

	f, err := file.Open()
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "cannot open uploaded file"})
	}
	defer f.Close()

	data, err := utils.ReadAllLimit(f, maxImageSize)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "file too large (max 12MB)"})
	}

	// user is optional here; the endpoint is open like the rest of detect
	var userID *uint
	if id, ok := ctx.Locals("userID").(uint); ok && id != 0 {
		userID = &id
	}

	res, err := h.svc.Detect(ctx.UserContext(), userID, data)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}

	return ctx.Status(fiber.StatusOK).JSON(res)
}

// POST /api/detect/ask
func (h *DetectHandler) Ask(ctx *fiber.Ctx) error {
	var requestBody dto.AskRequest

	if err := ctx.BodyParser(&requestBody); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(dto.AskResponse{
			Success: false,
			Message: "question and image_url are required",
		})
	}

	res, err := h.svc.Ask(ctx.UserContext(), requestBody)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "ask failed"})
	}

	if !res.Success {
		return ctx.Status(fiber.StatusBadRequest).JSON(res)
	}
	return ctx.Status(fiber.StatusOK).JSON(res)
}

func (h *DetectHandler) History(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 20)
	offset := ctx.QueryInt("offset", 0)

	records, err := h.svc.ListDetections(limit, offset)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "could not list detections"})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":    true,
		"detections": records,
	})
}
