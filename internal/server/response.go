package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scaffolder/internal/generate"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// statusFor maps a generation error kind to an HTTP status.
func statusFor(kind generate.Kind) int {
	switch kind {
	case generate.EContract, generate.EUnsupportedCombination:
		return http.StatusBadRequest
	case generate.ERetrieval:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondGenerateError writes err in the envelope with its kind as the code.
func respondGenerateError(c *gin.Context, err error) {
	kind := generate.KindOf(err)
	code := string(kind)
	if code == "" {
		code = "E_INTERNAL"
	}
	RespondError(c, statusFor(kind), code, err)
}
