package handlers

import (
	"errors"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/tickify/tickify/internal/service"
	apperrors "github.com/tickify/tickify/pkg/util"
)

var validate = validator.New()

const maxAttachmentBytes = 10 << 20

// parseBody decodes JSON or form bodies into req and runs validation.
func parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return validateStruct(req)
}

func validateStruct(req any) error {
	if err := validate.Struct(req); err != nil {
		details := map[string]any{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details[strings.ToLower(fe.Field())] = fe.Tag()
			}
		}
		return apperrors.NewValidationError("validation failed", details)
	}
	return nil
}

// attachmentFromForm extracts an optional multipart file named
// "attachment". A missing file is not an error.
func attachmentFromForm(c *fiber.Ctx) (*service.AttachmentInput, error) {
	header, err := c.FormFile("attachment")
	if err != nil {
		return nil, nil
	}
	if header.Size > maxAttachmentBytes {
		return nil, apperrors.NewValidationError("attachment too large", map[string]any{
			"max_bytes": maxAttachmentBytes,
		})
	}

	file, err := header.Open()
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &service.AttachmentInput{Content: content, Filename: header.Filename}, nil
}
