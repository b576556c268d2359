package response

import "github.com/gofiber/fiber/v2"

// Envelope is the body shape shared by every endpoint.
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
	Errors     []string    `json:"errors"`
}

func New(statusCode int, data interface{}, message string) *Envelope {
	return &Envelope{
		StatusCode: statusCode,
		Success:    statusCode < fiber.StatusBadRequest,
		Message:    message,
		Data:       data,
		Errors:     []string{},
	}
}

func NewError(statusCode int, message string, errors []string) *Envelope {
	if errors == nil {
		errors = []string{}
	}

	return &Envelope{
		StatusCode: statusCode,
		Success:    false,
		Message:    message,
		Data:       nil,
		Errors:     errors,
	}
}

func Send(ctx *fiber.Ctx, statusCode int, data interface{}, message string) error {
	return ctx.
		Status(statusCode).
		JSON(New(statusCode, data, message))
}
