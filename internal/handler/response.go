package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/model"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/pkg/apperrors"
)

var registerTagNames sync.Once

// useFormFieldNames makes validation errors report form field names
// ("zipFile") instead of Go field names ("ZipFile").
func useFormFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"form", "json"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, model.OK(message, data))
}

// bindError turns a gin binding failure into a 400 with one detail per
// invalid field, or a 413 when the body hit the size cap.
func bindError(err error) *apperrors.AppError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.New(apperrors.ErrPayloadTooLarge, "upload exceeds the size limit", nil,
			fmt.Sprintf("request body must not exceed %d bytes", tooLarge.Limit))
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, fieldMessage(fe))
		}
		return apperrors.NewInvalidRequest("invalid request data", details...)
	}
	return apperrors.NewInvalidRequest("invalid request data", err.Error())
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}
