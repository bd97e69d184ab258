package catalogapi

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	gvalidator "github.com/go-playground/validator/v10"

	"github.com/milan604/permcatalog/pkg/apperr"
	"github.com/milan604/permcatalog/pkg/engine"
	"github.com/milan604/permcatalog/pkg/permissions"
	"github.com/milan604/permcatalog/pkg/render"
	"github.com/milan604/permcatalog/pkg/utils"
	"github.com/milan604/permcatalog/pkg/validator"
)

// listQuery is the query string of the list endpoint and the advanced page.
type listQuery struct {
	Search  string   `form:"search"`
	Types   []string `form:"types" binding:"dive,permtypes"`
	Service string   `form:"service"`
	Access  string   `form:"access"`
	Sort    string   `form:"sort" binding:"sortorder"`
	Page    *int     `form:"page" binding:"omitempty,min=1"`
}

type searchQuery struct {
	Q          string `form:"q"`
	Permission string `form:"permission"`
}

type idURI struct {
	ID string `uri:"id" binding:"required"`
}

type slugURI struct {
	API  string `uri:"api" binding:"required"`
	Slug string `uri:"slug" binding:"required"`
}

func newQueryValidator() *validator.Validator {
	vi := validator.New()
	// registration only fails for malformed tag names
	_ = vi.RegisterValidation("permtypes", func(fl gvalidator.FieldLevel) bool {
		_, ok := parseTypeList(fl.Field().String())
		return ok
	})
	_ = vi.RegisterValidation("sortorder", func(fl gvalidator.FieldLevel) bool {
		return engine.ValidSortOrder(fl.Field().String())
	})
	vi.RegisterTagError("permtypes", apperr.ErrorCodeInvalidQuery, func(fe gvalidator.FieldError) string {
		return fmt.Sprintf("%v is not a list of %s", fe.Value(), strings.Join(engine.AllTypeSet.Strings(), ", "))
	})
	vi.RegisterTagError("sortorder", apperr.ErrorCodeInvalidQuery, func(fe gvalidator.FieldError) string {
		names := make([]string, 0, 3)
		for _, o := range engine.SortOrders() {
			names = append(names, o.String())
		}
		return fmt.Sprintf("sort must be one of %s", strings.Join(names, ", "))
	})
	return vi
}

// parseTypeList reads a comma separated list of type names. Blank entries
// are skipped; any unknown name fails.
func parseTypeList(raw string) ([]permissions.Type, bool) {
	var out []permissions.Type
	for _, part := range utils.SplitAndTrim(raw, ",", true) {
		t, ok := permissions.ParseType(part)
		if !ok {
			return nil, false
		}
		out = append(out, t)
	}
	return out, true
}

// filterState turns the query into a FilterState. An absent types parameter
// selects every type; a present one selects exactly the listed types, which
// may be none.
func (q listQuery) filterState(typesPresent bool) engine.FilterState {
	f := engine.FilterState{
		Search:  q.Search,
		Types:   engine.AllTypeSet,
		Service: q.Service,
		Access:  q.Access,
	}
	if typesPresent {
		f.Types = 0
		for _, raw := range q.Types {
			types, _ := parseTypeList(raw)
			f.Types |= engine.NewTypeSet(types...)
		}
	}
	return f.Normalized()
}

func (q listQuery) page() int {
	if q.Page == nil {
		return 1
	}
	return *q.Page
}

// bindList binds and validates the list query of c.
func (h *Handler) bindList(c *gin.Context) (engine.FilterState, engine.SortOrder, int, *apperr.AppError) {
	q, appErr := validator.BindQuery[listQuery](h.vi, c)
	if appErr != nil {
		return engine.FilterState{}, engine.SortNone, 0, appErr
	}
	_, typesPresent := c.GetQueryArray(render.ParamTypes)
	return q.filterState(typesPresent), engine.ParseSortOrder(q.Sort), q.page(), nil
}
