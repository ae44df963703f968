package utils

import "github.com/gofiber/fiber/v2"

// Every endpoint answers with a success flag plus either a message or a
// field-error map, so the helpers carry that envelope.

func ResponseMessage(ctx *fiber.Ctx, status int, success bool, msg string) error {
	return ctx.Status(status).JSON(fiber.Map{
		"success": success,
		"message": msg,
	})
}

func ResponseErrors(ctx *fiber.Ctx, status int, errs interface{}) error {
	return ctx.Status(status).JSON(fiber.Map{
		"success": false,
		"errors":  errs,
	})
}

func ResponseTokens(ctx *fiber.Ctx, status int, access, refresh string) error {
	return ctx.Status(status).JSON(fiber.Map{
		"success": true,
		"access":  access,
		"refresh": refresh,
	})
}
