package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/escolado/escolado/core/discipline"
)

type disciplineApi struct {
	svc *discipline.Service
}

func registerDisciplineAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *discipline.Service) {
	api := disciplineApi{svc: svc}

	dg := g.Group("/discipline", jwt)

	dg.POST("/suspensions", api.createSuspension)
	dg.GET("/suspensions", api.querySuspensions)
	dg.GET("/suspensions/:id", api.retrieveSuspension)

	dg.POST("/warnings", api.createWarning)
	dg.GET("/warnings", api.queryWarnings)
	dg.GET("/warnings/:id", api.retrieveWarning)
	dg.POST("/warnings/issue-documents", api.issueDocuments)
}

// Suspensions

func (api *disciplineApi) createSuspension(ctx echo.Context) error {
	var data discipline.NewSuspension
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSuspension")
	}

	var actorID string
	if claims, err := getContextClaims(ctx); err == nil {
		actorID = claims.Subject
	}

	sus, err := api.svc.CreateSuspension(ctx.Request().Context(), data, actorID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sus)
}

// querySuspensions lists active suspensions by default; pass all=true to
// include past ones.
func (api *disciplineApi) querySuspensions(ctx echo.Context) error {
	all := false
	if val := ctx.QueryParam("all"); val != "" {
		var err error
		if all, err = strconv.ParseBool(val); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "all must be a boolean")
		}
	}

	var suspensions []discipline.Suspension
	var err error
	if all {
		suspensions, err = api.svc.ListAll(ctx.Request().Context(), ctx.QueryParam("section_id"))
	} else {
		suspensions, err = api.svc.ListActive(ctx.Request().Context(), ctx.QueryParam("section_id"))
	}
	if err != nil {
		return errors.Wrap(err, "querying suspensions")
	}
	if suspensions == nil {
		suspensions = []discipline.Suspension{}
	}
	return ctx.JSON(http.StatusOK, suspensions)
}

func (api *disciplineApi) retrieveSuspension(ctx echo.Context) error {
	sus, err := api.svc.GetSuspension(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sus)
}

// Warnings

func (api *disciplineApi) createWarning(ctx echo.Context) error {
	var data discipline.NewWarning
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewWarning")
	}
	wrn, err := api.svc.CreateWarning(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, wrn)
}

func (api *disciplineApi) queryWarnings(ctx echo.Context) error {
	warnings, err := api.svc.QueryWarnings(ctx.Request().Context(), ctx.QueryParam("student_id"))
	if err != nil {
		return errors.Wrap(err, "querying warnings")
	}
	if warnings == nil {
		warnings = []discipline.Warning{}
	}
	return ctx.JSON(http.StatusOK, warnings)
}

func (api *disciplineApi) retrieveWarning(ctx echo.Context) error {
	wrn, err := api.svc.GetWarning(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, wrn)
}

// issueDocuments generates and e-mails the selected warning notices.
// Per-item delivery failures come back as warnings in a 200 response;
// they never abort the batch.
func (api *disciplineApi) issueDocuments(ctx echo.Context) error {
	var data IssueDocumentsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to IssueDocumentsRequest")
	}
	if len(data.WarningIDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "warning_ids is required")
	}

	failures, err := api.svc.IssueDocuments(ctx.Request().Context(), data.WarningIDs)
	if err != nil {
		return errors.Wrap(err, "issuing warning documents")
	}
	return ctx.JSON(http.StatusOK, IssueDocumentsResponse{
		Issued:   len(data.WarningIDs) - len(failures),
		Warnings: failures,
	})
}

type (
	IssueDocumentsRequest struct {
		WarningIDs []string `json:"warning_ids"`
	}

	IssueDocumentsResponse struct {
		Issued   int                          `json:"issued"`
		Warnings []discipline.DeliveryFailure `json:"warnings"`
	}
)
