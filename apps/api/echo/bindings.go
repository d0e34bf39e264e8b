package echoapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/escolado/escolado/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindOrdering parses the "ordering" query parameter, rejecting any field
// outside the route's sortable set.
func bindOrdering(ctx echo.Context, sortable ...string) ([]core.DBOrdering, error) {
	var ord Ordering
	ord.Bind(ctx)

	for _, o := range ord.Orderings {
		known := false
		for _, field := range sortable {
			if o.Field == field {
				known = true
				break
			}
		}
		if !known {
			return nil, core.NewValidationError(errors.New("unknown ordering field"),
				core.FieldError{Field: orderingParam, Error: fmt.Sprintf("cannot order by %q", o.Field)})
		}
	}
	return ord.Orderings, nil
}

// bindDateParam parses a required "2006-01-02" query or path parameter.
func bindDateParam(value, field string) (time.Time, error) {
	date, err := core.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, core.NewValidationError(err, core.FieldError{Field: field, Error: "must be a valid date in YYYY-MM-DD format"})
	}
	return date, nil
}
