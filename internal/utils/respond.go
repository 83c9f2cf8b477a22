package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"accessible-backend/internal/apperr"
	"accessible-backend/internal/metrics"
	"accessible-backend/internal/response"
	"accessible-backend/pkg/logger"
)

var exposeInternal bool

// ExposeInternalErrors controls whether 500 envelopes carry the underlying
// error text. Only enable in debug deployments.
func ExposeInternalErrors(on bool) {
	exposeInternal = on
}

// statusMessages are spoken messages for bare HTTP failures.
var statusMessages = map[int]string{
	http.StatusBadRequest:          "Invalid request",
	http.StatusUnauthorized:        "Not authorized. Sign in to continue",
	http.StatusForbidden:           "You do not have permission to perform this action",
	http.StatusNotFound:            "The requested resource was not found",
	http.StatusMethodNotAllowed:    "Method not allowed",
	http.StatusTooManyRequests:     "Too many requests. Wait a moment and try again",
	http.StatusInternalServerError: "Internal server error",
	http.StatusBadGateway:          "Service temporarily unavailable",
	http.StatusServiceUnavailable:  "Service under maintenance",
}

// StatusMessage returns the spoken message for an HTTP status.
func StatusMessage(status int) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return http.StatusText(status)
}

// WriteEnvelope writes env as the JSON body with status.
func WriteEnvelope(c *gin.Context, status int, env response.Envelope) {
	metrics.ObserveEnvelope(string(env.MessageType))
	c.JSON(status, env)
}

// AbortWithEnvelope writes env and stops the handler chain.
func AbortWithEnvelope(c *gin.Context, status int, env response.Envelope) {
	c.Abort()
	WriteEnvelope(c, status, env)
}

// WriteError converts err into a failure envelope and writes it.
func WriteError(c *gin.Context, err error) {
	status, env := ErrorEnvelope(err)
	if status >= http.StatusInternalServerError {
		logger.WithFields(logger.Fields{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"error":  fmt.Sprint(err),
		}).Error("request failed")
	}
	WriteEnvelope(c, status, env)
}

// AbortWithError is WriteError that also stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	c.Abort()
	WriteError(c, err)
}

// ErrorEnvelope maps err to an HTTP status and a failure envelope.
func ErrorEnvelope(err error) (int, response.Envelope) {
	appErr := apperr.As(err)
	if appErr == nil {
		appErr = apperr.New(apperr.ErrInternal, "unknown error")
	}
	status := apperr.HTTPStatus(appErr.Code)

	if appErr.Code == apperr.ErrValidation {
		env := ValidationEnvelope(appErr.Message, appErr.Fields)
		if appErr.Focus != "" {
			env.AccessibilityInfo.FocusElement = appErr.Focus
		}
		return status, env
	}

	msgType := response.MessageError
	if apperr.IsWarning(appErr.Code) {
		msgType = response.MessageWarning
	}

	message := appErr.Message
	if status >= http.StatusInternalServerError {
		message = "An unexpected error occurred. Please try again."
		if exposeInternal {
			message += " (" + appErr.Error() + ")"
		}
	}

	details := fieldDetails(appErr.Code, appErr.Fields)
	if len(details) == 0 {
		details = []response.ErrorDetail{{
			Field:   response.GeneralField,
			Message: message,
			Code:    string(appErr.Code),
		}}
	}

	hints := &response.Hints{FocusElement: appErr.Focus}
	if status >= http.StatusInternalServerError {
		hints.Announcement = "Server error. Please try again in a few moments."
		if hints.FocusElement == "" {
			hints.FocusElement = "error-message"
		}
	}

	return status, response.Build(response.Input{
		Success:       false,
		Message:       message,
		Type:          msgType,
		Accessibility: hints,
		Errors:        details,
	})
}

// ValidationEnvelope builds the 422 envelope for a list of field problems.
func ValidationEnvelope(message string, fields []apperr.FieldError) response.Envelope {
	if message == "" {
		message = "The submitted data is not valid"
	}
	details := fieldDetails(apperr.ErrValidation, fields)

	first, focus := message, "form"
	if len(details) > 0 {
		first = details[0].Message
		if details[0].Field != "" && details[0].Field != response.GeneralField {
			focus = details[0].Field + "-field"
		}
	}

	return response.Failure(message, &response.Hints{
		Announcement:  fmt.Sprintf("There are %d error(s) in the form. First error: %s", max(len(details), 1), first),
		FocusElement:  focus,
		HapticPattern: response.HapticError,
	}, details...)
}

func fieldDetails(code apperr.Code, fields []apperr.FieldError) []response.ErrorDetail {
	details := make([]response.ErrorDetail, 0, len(fields))
	for _, f := range fields {
		field := f.Field
		if field == "" {
			field = response.GeneralField
		}
		suggestion := f.Suggestion
		if suggestion == "" {
			suggestion = "Check the information and try again"
		}
		details = append(details, response.ErrorDetail{
			Field:      field,
			Message:    f.Message,
			Suggestion: suggestion,
			Code:       string(code),
		})
	}
	return details
}

// BindingError turns an error from gin's ShouldBind* into a validation
// error with one entry per offending field.
func BindingError(err error) *apperr.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]apperr.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apperr.FieldError{
				Field:      fe.Field(),
				Message:    tagMessage(fe),
				Suggestion: "Check the field format and try again",
			})
		}
		return apperr.Validation("The submitted data is not valid", fields...)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperr.Validation("The submitted data is not valid", apperr.FieldError{
			Field:      typeErr.Field,
			Message:    fmt.Sprintf("Expected a %s value", typeErr.Type.Kind()),
			Suggestion: "Check the field type and try again",
		})
	}

	msg := "The request body is not valid JSON"
	if errors.Is(err, io.EOF) {
		msg = "The request body is empty"
	}
	return apperr.Validation("The submitted data is not valid", apperr.FieldError{
		Field:      response.GeneralField,
		Message:    msg,
		Suggestion: "Send a JSON object with the required fields",
	})
}

// UseJSONFieldNames makes gin's validator report fields by their JSON name.
func UseJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Email format is invalid"
	case "min":
		return fmt.Sprintf("Must be at least %s characters long", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters long", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "eqfield":
		return "Passwords do not match"
	}
	return "Invalid value"
}
