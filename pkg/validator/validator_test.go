package validator

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	gvalidator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/milan604/permcatalog/pkg/apperr"
)

type pageQuery struct {
	Page  int    `form:"page,default=1" binding:"min=1"`
	Color string `form:"color" binding:"omitempty,color"`
}

func bind(t *testing.T, vi *Validator, rawQuery string) (*pageQuery, *apperr.AppError) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)
	return BindQuery[pageQuery](vi, c)
}

func TestBindQueryCustomTag(t *testing.T) {
	vi := New()
	require.NoError(t, vi.RegisterValidation("color", func(fl gvalidator.FieldLevel) bool {
		return fl.Field().String() == "red" || fl.Field().String() == "blue"
	}))
	vi.RegisterTagError("color", apperr.ErrorCodeInvalidQuery, func(fe gvalidator.FieldError) string {
		return "must be red or blue"
	})

	q, appErr := bind(t, vi, "")
	require.Nil(t, appErr)
	require.Equal(t, 1, q.Page)

	_, appErr = bind(t, vi, "color=green")
	require.NotNil(t, appErr)
	require.Equal(t, apperr.ErrorCodeInvalidQuery.Code(), appErr.Code)
	require.Equal(t, []apperr.Suggestion{{Field: "color", Message: "must be red or blue"}}, appErr.Suggestions)
}

func TestBindQueryRejectsBadPage(t *testing.T) {
	vi := New()

	_, appErr := bind(t, vi, "page=0")
	require.NotNil(t, appErr)
	require.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus)
	require.Equal(t, "page", appErr.Suggestions[0].Field)

	_, appErr = bind(t, vi, "page=abc")
	require.NotNil(t, appErr)
	require.Equal(t, apperr.ErrorCodeInvalidQuery.Code(), appErr.Code)
}
