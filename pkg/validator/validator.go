package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	gvalidator "github.com/go-playground/validator/v10"

	"github.com/milan604/permcatalog/pkg/apperr"
)

// TagErrorBuilder describes how to convert a validator.FieldError into a message
type TagErrorBuilder struct {
	Code    *apperr.ErrorCode
	Builder func(fe gvalidator.FieldError) string
}

// Validator is the wrapper around go-playground validator with extra features.
type Validator struct {
	v                *gvalidator.Validate
	tagErrorBuilders map[string]TagErrorBuilder
}

// ValidatorEngine defines the interface for validation engines
// This allows for custom implementations and easier testing
type ValidatorEngine interface {
	RegisterValidation(tag string, fn gvalidator.Func) error
	RegisterTagError(tag string, code *apperr.ErrorCode, builder func(gvalidator.FieldError) string)
	ParseError(err error) *apperr.AppError
}

// New wraps gin's binding validator so that custom tags registered here are
// honoured by ShouldBind*. Field names in errors come from form, uri or json tags.
func New() *Validator {
	v, ok := binding.Validator.Engine().(*gvalidator.Validate)
	if !ok {
		v = gvalidator.New()
	}
	v.RegisterTagNameFunc(fieldName)

	return &Validator{
		v:                v,
		tagErrorBuilders: make(map[string]TagErrorBuilder),
	}
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"form", "uri", "json"} {
		if name := getTagName(f, tag); name != "" {
			return name
		}
	}
	return f.Name
}

// helper to get tag name
func getTagName(f reflect.StructField, tagName string) string {
	tagValue := f.Tag.Get(tagName)
	if tagValue == "-" {
		return ""
	}
	return strings.SplitN(tagValue, ",", 2)[0]
}

// RegisterValidation registers a custom validator (name) to the engine.
func (vi *Validator) RegisterValidation(tag string, fn gvalidator.Func) error {
	return vi.v.RegisterValidation(tag, fn)
}

// RegisterTagError allows mapping tag -> ErrorCode + message builder.
func (vi *Validator) RegisterTagError(tag string, code *apperr.ErrorCode, builder func(gvalidator.FieldError) string) {
	vi.tagErrorBuilders[tag] = TagErrorBuilder{Code: code, Builder: builder}
}

// Var validates a single value against tag.
func (vi *Validator) Var(value any, tag string) error {
	return vi.v.Var(value, tag)
}

// ParseError converts any binding/validator error into *apperr.AppError
func (vi *Validator) ParseError(err error) *apperr.AppError {
	if err == nil {
		return nil
	}

	var (
		verrs   gvalidator.ValidationErrors
		numErr  *strconv.NumError
		typeErr *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &verrs):
		code := apperr.ErrorCodeValidationFail
		for _, fe := range verrs {
			if b, ok := vi.tagErrorBuilders[fe.Tag()]; ok && b.Code != nil {
				code = b.Code
				break
			}
		}
		appErr := apperr.New(code)
		for _, fe := range verrs {
			appErr.AddSuggestion(fe.Field(), vi.buildMessageForField(fe))
		}
		return appErr

	case errors.As(err, &numErr):
		return apperr.New(apperr.ErrorCodeInvalidQuery).
			AddSuggestion("", fmt.Sprintf("%q is not a number", numErr.Num))

	case errors.As(err, &typeErr):
		appErr := apperr.New(apperr.ErrorCodeInvalidRequest)
		if typeErr.Field != "" {
			appErr.AddSuggestion(typeErr.Field, fmt.Sprintf("Invalid type for field %s: expected %s", typeErr.Field, typeErr.Type))
		}
		return appErr

	default:
		return apperr.Newf(apperr.ErrorCodeInvalidQuery, "Invalid input: %v", err)
	}
}

// buildMessageForField uses registered tag builders or defaults
func (vi *Validator) buildMessageForField(fe gvalidator.FieldError) string {
	if b, ok := vi.tagErrorBuilders[fe.Tag()]; ok && b.Builder != nil {
		return b.Builder(fe)
	}
	if fe.Param() != "" {
		return fmt.Sprintf("field %s failed on '%s' validation (param=%s)", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("field %s failed on '%s' validation", fe.Field(), fe.Tag())
}

// BindQuery binds & validates query parameters
func BindQuery[T any](vi ValidatorEngine, ctx *gin.Context) (*T, *apperr.AppError) {
	var req T
	if err := ctx.ShouldBindQuery(&req); err != nil {
		return nil, vi.ParseError(err)
	}
	return &req, nil
}

// BindURI binds & validates uri params
func BindURI[T any](vi ValidatorEngine, ctx *gin.Context) (*T, *apperr.AppError) {
	var req T
	if err := ctx.ShouldBindUri(&req); err != nil {
		return nil, vi.ParseError(err)
	}
	return &req, nil
}
