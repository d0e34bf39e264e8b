package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/escolado/escolado/core/inventory"
)

type inventoryApi struct {
	svc *inventory.Service
}

func registerInventoryAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *inventory.Service) {
	api := inventoryApi{svc: svc}

	ig := g.Group("/inventory", jwt)

	ig.POST("/resources", api.createResource)
	ig.GET("/resources", api.queryResources)
	ig.GET("/resources/:id", api.retrieveResource)

	ig.POST("/loans", api.checkout)
	ig.GET("/loans", api.queryLoans)
	ig.GET("/loans/:id", api.retrieveLoan)
	ig.PUT("/loans/:id", api.updateLoan)
	ig.POST("/loans/:id/return", api.markReturned)
}

// Resources

func (api *inventoryApi) createResource(ctx echo.Context) error {
	var data inventory.NewResource
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResource")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	res, err := api.svc.CreateResource(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating resource")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *inventoryApi) queryResources(ctx echo.Context) error {
	resources, err := api.svc.QueryResources(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying resources")
	}
	if resources == nil {
		resources = []inventory.Resource{}
	}
	return ctx.JSON(http.StatusOK, resources)
}

func (api *inventoryApi) retrieveResource(ctx echo.Context) error {
	res, err := api.svc.GetResource(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

// Loans

func (api *inventoryApi) checkout(ctx echo.Context) error {
	var data inventory.NewLoan
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLoan")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	loan, err := api.svc.Checkout(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, loan)
}

func (api *inventoryApi) queryLoans(ctx echo.Context) error {
	filter := inventory.QueryFilter{ResourceID: ctx.QueryParam("resource_id")}
	if val := ctx.QueryParam("returned"); val != "" {
		returned, err := strconv.ParseBool(val)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "returned must be a boolean")
		}
		filter.Returned = &returned
	}
	orderings, err := bindOrdering(ctx, "quantity", "checked_out_at", "expected_return")
	if err != nil {
		return err
	}

	loans, err := api.svc.QueryLoans(ctx.Request().Context(), filter, orderings...)
	if err != nil {
		return errors.Wrap(err, "querying loans")
	}
	if loans == nil {
		loans = []inventory.Loan{}
	}
	return ctx.JSON(http.StatusOK, loans)
}

func (api *inventoryApi) retrieveLoan(ctx echo.Context) error {
	loan, err := api.svc.GetLoan(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, loan)
}

func (api *inventoryApi) updateLoan(ctx echo.Context) error {
	var data inventory.UpdateLoan
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLoan")
	}
	if err := data.Validate(); err != nil {
		return err
	}
	loan, err := api.svc.UpdateLoan(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, loan)
}

func (api *inventoryApi) markReturned(ctx echo.Context) error {
	loan, err := api.svc.MarkReturned(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, loan)
}
