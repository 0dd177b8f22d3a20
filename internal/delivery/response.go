package delivery

import (
	"github.com/gofiber/fiber/v2"

	"tg-link-service/internal/domain"
	"tg-link-service/internal/service"
)

// respond - отправка конверта; HTTP статус повторяет поле code
func respond(c *fiber.Ctx, env domain.Envelope) error {
	return c.Status(env.Code).JSON(env)
}

// respondWithError - вспомогательная функция для отправки ошибок
func respondWithError(c *fiber.Ctx, status int, message string) error {
	return respond(c, service.ErrorEnvelope(status, message))
}

// respondBadRequest - ошибка валидации (400)
func respondBadRequest(c *fiber.Ctx, message string) error {
	return respondWithError(c, fiber.StatusBadRequest, message)
}

// respondUnauthorized - ошибка авторизации (401)
func respondUnauthorized(c *fiber.Ctx, message string) error {
	return respondWithError(c, fiber.StatusUnauthorized, message)
}

// respondInternalError - внутренняя ошибка (500)
func respondInternalError(c *fiber.Ctx) error {
	return respondWithError(c, fiber.StatusInternalServerError, "Internal server error")
}

// respondOK - успешный ответ (200)
func respondOK(c *fiber.Ctx, message string, data any) error {
	return respond(c, domain.Envelope{
		Code:    fiber.StatusOK,
		Status:  domain.StatusSuccess,
		Message: message,
		Data:    data,
	})
}
