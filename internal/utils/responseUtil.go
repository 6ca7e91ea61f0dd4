package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/llmgate/prompt-optimizer/models"
)

// ProcessValidationError rejects a request whose body failed binding.
func ProcessValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, models.ErrorResponse{Detail: describeBindingError(err)})
}

func ProcessValidationDetail(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, models.ErrorResponse{Detail: detail})
}

// ProcessInternalError reports an upstream failure with its message as detail.
func ProcessInternalError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{Detail: err.Error()})
}

func describeBindingError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fe := range validationErrors {
			field := strings.ToLower(fe.Field())
			if fe.Tag() == "required" {
				details = append(details, field+": field required")
			} else {
				details = append(details, fmt.Sprintf("%s: failed %s validation", field, fe.Tag()))
			}
		}
		return strings.Join(details, "; ")
	}

	var typeError *json.UnmarshalTypeError
	if errors.As(err, &typeError) {
		if typeError.Field == "" {
			return "body: input should be a valid object"
		}
		return fmt.Sprintf("%s: input should be a valid %s", typeError.Field, typeError.Type)
	}

	var syntaxError *json.SyntaxError
	if errors.As(err, &syntaxError) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return "body: invalid JSON"
	}

	return err.Error()
}
