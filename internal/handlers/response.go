package handlers

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/dimitrije/orbit-api/internal/models"
	"github.com/dimitrije/orbit-api/internal/services"
	"github.com/dimitrije/orbit-api/pkg/dto"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func respond(c *drift.Context, status int, message string, data interface{}) {
	_ = c.JSON(status, dto.NewResponse(status, message, data))
}

func fail(c *drift.Context, status int, message string) {
	_ = c.JSON(status, dto.NewResponse(status, message, nil))
}

// respondError maps a service error onto the envelope. Errors without a kind
// are logged and answered with a generic 500.
func respondError(c *drift.Context, log *zap.Logger, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		log.Error("request failed",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		fail(c, http.StatusInternalServerError, "internal server error")
		return
	}
	fail(c, statusForKind(svcErr.Kind), svcErr.Message)
}

func statusForKind(kind services.Kind) int {
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindConflict:
		return http.StatusConflict
	case services.KindInvalidState, services.KindInvalidInput:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// bind decodes the JSON body into req and runs its validate tags. On failure
// it writes a 400 and returns false.
func bind(c *drift.Context, req interface{}) bool {
	if err := c.BindJSON(req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(req); err != nil {
		fail(c, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// bindOptional is bind for requests whose fields are all optional: a missing
// body decodes as the zero request.
func bindOptional(c *drift.Context, req interface{}) bool {
	if c.Request.ContentLength != 0 {
		if err := c.BindJSON(req); err != nil && !errors.Is(err, io.EOF) {
			fail(c, http.StatusBadRequest, "invalid request body")
			return false
		}
	}
	if err := validate.Struct(req); err != nil {
		fail(c, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, e.Field()+": "+fieldMessage(e))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "uuid":
		return "must be a valid UUID"
	case "min":
		if e.Kind() == reflect.String {
			return "must be at least " + e.Param() + " characters"
		}
		return "must have at least " + e.Param() + " elements"
	case "max":
		if e.Kind() == reflect.String {
			return "must be at most " + e.Param() + " characters"
		}
		return "must have at most " + e.Param() + " elements"
	case "len":
		return "must be exactly " + e.Param() + " characters"
	case "oneof":
		return "must be one of: " + e.Param()
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "url":
		return "must be a valid URL"
	case "hexcolor":
		return "must be a hex color"
	default:
		return "is invalid"
	}
}

// uuidParam parses a route parameter, writing a 400 when it is malformed.
func uuidParam(c *drift.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid "+label+" id")
		return uuid.Nil, false
	}
	return id, true
}

func pageFromQuery(c *drift.Context) models.Page {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return models.NewPage(page, limit)
}

func parseDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil
	}
	return &t
}

// parseUUIDs parses ids already checked by the uuid validate tag.
func parseUUIDs(raw []string) []uuid.UUID {
	if raw == nil {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		ids = append(ids, uuid.MustParse(s))
	}
	return ids
}
