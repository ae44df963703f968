package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/worrakit/vision_service/internal/api/rest/middleware"
	"github.com/worrakit/vision_service/internal/dto"
	"github.com/worrakit/vision_service/internal/helper"
	"github.com/worrakit/vision_service/internal/helper/utils"
	"github.com/worrakit/vision_service/internal/repository"
	"github.com/worrakit/vision_service/internal/services"
)

type UserHandler struct {
	svc  services.UserService
	auth helper.Auth
}

func NewUserHandler(svc services.UserService, auth helper.Auth) *UserHandler {
	return &UserHandler{svc: svc, auth: auth}
}

func (h *UserHandler) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	user := api.Group("/user")

	// Auth
	user.Post("/signup", h.Signup)
	user.Post("/login", h.Login)

	// Password reset workflow
	user.Post("/send-otp", h.SendOTP)
	user.Post("/verify-otp", h.VerifyOTP)
	user.Post("/replace-password", h.ReplacePassword)

	// Profile
	user.Get("/me", middleware.AuthMiddleware(h.auth), h.Me)
}

func (h *UserHandler) Signup(ctx *fiber.Ctx) error {
	var requestBody dto.SignupRequest

	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseErrors(ctx, fiber.StatusBadRequest, []string{"Please provide valid inputs"})
	}
	if requestBody.Email == "" || requestBody.Password == "" || requestBody.FullName == "" {
		return utils.ResponseErrors(ctx, fiber.StatusBadRequest, []string{"Please provide valid inputs"})
	}

	tokens, err := h.svc.Signup(requestBody)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return utils.ResponseErrors(ctx, fiber.StatusBadRequest, fiber.Map{
				"email": []string{"User already exists"},
			})
		}
		return utils.ResponseMessage(ctx, fiber.StatusInternalServerError, false, "could not create user")
	}

	return utils.ResponseTokens(ctx, fiber.StatusCreated, tokens.Access, tokens.Refresh)
}

func (h *UserHandler) Login(ctx *fiber.Ctx) error {
	var requestBody dto.LoginRequest

	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseErrors(ctx, fiber.StatusBadRequest, []string{"email and password are required"})
	}

	tokens, err := h.svc.Login(requestBody)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			// unknown email and wrong password share this exact shape
			return utils.ResponseErrors(ctx, fiber.StatusBadRequest, []string{"Invalid email or password"})
		}
		return utils.ResponseMessage(ctx, fiber.StatusInternalServerError, false, "could not log in")
	}

	return utils.ResponseTokens(ctx, fiber.StatusOK, tokens.Access, tokens.Refresh)
}

func (h *UserHandler) SendOTP(ctx *fiber.Ctx) error {
	var requestBody dto.SendOTPRequest

	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.Email == "" {
		return utils.ResponseErrors(ctx, fiber.StatusBadRequest, []string{"Please provide valid email id"})
	}

	if err := h.svc.SendOTP(requestBody.Email); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return utils.ResponseMessage(ctx, fiber.StatusNotFound, false, "User not found")
		case errors.Is(err, services.ErrNotificationFailed):
			return utils.ResponseMessage(ctx, fiber.StatusBadGateway, false, "failed to send OTP email")
		default:
			return utils.ResponseMessage(ctx, fiber.StatusInternalServerError, false, "could not send OTP")
		}
	}

	return utils.ResponseMessage(ctx, fiber.StatusOK, true, "OTP sent to email")
}

func (h *UserHandler) VerifyOTP(ctx *fiber.Ctx) error {
	var requestBody dto.VerifyOTPRequest

	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.Email == "" || requestBody.OTP == "" {
		return utils.ResponseErrors(ctx, fiber.StatusBadRequest, []string{"email and otp are required"})
	}

	if err := h.svc.VerifyOTP(requestBody.Email, requestBody.OTP); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return utils.ResponseMessage(ctx, fiber.StatusNotFound, false, "User not found")
		case errors.Is(err, services.ErrInvalidOTP):
			return utils.ResponseMessage(ctx, fiber.StatusBadRequest, false, "Invalid OTP")
		default:
			return utils.ResponseMessage(ctx, fiber.StatusInternalServerError, false, "could not verify OTP")
		}
	}

	return utils.ResponseMessage(ctx, fiber.StatusOK, true, "OTP verified")
}

func (h *UserHandler) ReplacePassword(ctx *fiber.Ctx) error {
	var requestBody dto.ReplacePasswordRequest

	if err := ctx.BodyParser(&requestBody); err != nil || requestBody.Email == "" {
		return utils.ResponseErrors(ctx, fiber.StatusBadRequest, []string{"Please provide valid inputs"})
	}

	if err := h.svc.ReplacePassword(requestBody.Email, requestBody.NewPassword); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return utils.ResponseMessage(ctx, fiber.StatusNotFound, false, "User not found")
		case errors.Is(err, services.ErrOTPNotVerified):
			return utils.ResponseMessage(ctx, fiber.StatusBadRequest, false, "OTP not verified yet")
		case errors.Is(err, services.ErrMissingPassword):
			return utils.ResponseMessage(ctx, fiber.StatusBadRequest, false, "New password is required")
		default:
			return utils.ResponseMessage(ctx, fiber.StatusInternalServerError, false, "could not reset password")
		}
	}

	return utils.ResponseMessage(ctx, fiber.StatusOK, true, "Password reset successful")
}

func (h *UserHandler) Me(ctx *fiber.Ctx) error {
	claims, err := h.auth.GetCurrentUser(ctx)
	if err != nil {
		return utils.ResponseMessage(ctx, fiber.StatusUnauthorized, false, "unauthorized")
	}

	user, err := h.svc.GetProfile(uint(claims.UserID))
	if err != nil {
		return utils.ResponseMessage(ctx, fiber.StatusNotFound, false, "User not found")
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}
