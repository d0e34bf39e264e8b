package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/escolado/escolado/core/gradebook"
)

type gradebookApi struct {
	svc *gradebook.Service
}

func registerGradebookAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *gradebook.Service) {
	api := gradebookApi{svc: svc}

	gg := g.Group("/gradebook", jwt)

	gg.POST("/grades", api.upsert)
	gg.POST("/grades/batch", api.upsertBatch)
	gg.GET("/grades", api.query)
	gg.DELETE("/grades/:id", api.destroy)

	gg.GET("/students/:id/average", api.studentAverage)
	gg.GET("/students/:id/report-card", api.reportCard)
	gg.GET("/subjects/:id/average", api.subjectAverage)
}

// Handlers

func (api *gradebookApi) upsert(ctx echo.Context) error {
	var data gradebook.UpsertGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpsertGrade")
	}
	g, err := api.svc.Upsert(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradebookApi) upsertBatch(ctx echo.Context) error {
	var data gradebook.UpsertBatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpsertBatch")
	}
	count, err := api.svc.UpsertBatch(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, BatchResponse{Recorded: count})
}

func (api *gradebookApi) query(ctx echo.Context) error {
	filter := gradebook.QueryFilter{
		StudentID: ctx.QueryParam("student_id"),
		SubjectID: ctx.QueryParam("subject_id"),
	}
	if val := ctx.QueryParam("period"); val != "" {
		period, err := strconv.Atoi(val)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "period must be an integer")
		}
		filter.Period = period
	}

	grades, err := api.svc.QueryGrades(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	if grades == nil {
		grades = []gradebook.Grade{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradebookApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gradebookApi) studentAverage(ctx echo.Context) error {
	avg, err := api.svc.StudentAverage(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "computing student average")
	}
	return ctx.JSON(http.StatusOK, avg)
}

func (api *gradebookApi) subjectAverage(ctx echo.Context) error {
	avg, err := api.svc.SubjectAverage(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "computing subject average")
	}
	return ctx.JSON(http.StatusOK, avg)
}

func (api *gradebookApi) reportCard(ctx echo.Context) error {
	period, err := bindPeriodParam(ctx)
	if err != nil {
		return err
	}

	card, err := api.svc.ReportCard(ctx.Request().Context(), ctx.Param("id"), period)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, card)
}

// bindPeriodParam parses the optional "period" query parameter; 0 means the
// whole year.
func bindPeriodParam(ctx echo.Context) (int, error) {
	val := ctx.QueryParam("period")
	if val == "" {
		return 0, nil
	}
	period, err := strconv.Atoi(val)
	if err != nil || period < gradebook.MinPeriod || period > gradebook.MaxPeriod {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "period must be an integer between 1 and 4")
	}
	return period, nil
}

type BatchResponse struct {
	Recorded int `json:"recorded"`
}
