package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/escolado/escolado/core/attendance"
)

type attendanceApi struct {
	svc *attendance.Service
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service) {
	api := attendanceApi{svc: svc}

	ag := g.Group("/attendance", jwt)

	ag.POST("/roll-calls", api.recordRollCall)
	ag.GET("/roll-calls/dates", api.datesSummary)
	ag.GET("/sections/:id/dates/:date", api.sectionDateDetail)
	ag.GET("/sections/:id/dates/:date/summary", api.rollCallSummary)
	ag.GET("/students/:id/percentage", api.percentage)
	ag.GET("/students/:id/records", api.studentRecords)
	ag.GET("/over-limit", api.overLimit)
}

// Handlers

func (api *attendanceApi) recordRollCall(ctx echo.Context) error {
	var data attendance.RollCall
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RollCall")
	}

	var actorID string
	if claims, err := getContextClaims(ctx); err == nil {
		actorID = claims.Subject
	}

	if err := api.svc.RecordRollCall(ctx.Request().Context(), data, actorID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *attendanceApi) datesSummary(ctx echo.Context) error {
	summaries, err := api.svc.DatesSummary(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying roll-call dates")
	}
	if summaries == nil {
		summaries = []attendance.DateSummary{}
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (api *attendanceApi) sectionDateDetail(ctx echo.Context) error {
	date, err := bindDateParam(ctx.Param("date"), "date")
	if err != nil {
		return err
	}

	recs, summary, err := api.svc.SectionDateDetail(ctx.Request().Context(), ctx.Param("id"), date)
	if err != nil {
		return errors.Wrap(err, "querying section roll call")
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, SectionDateResponse{Records: recs, Summary: summary})
}

func (api *attendanceApi) rollCallSummary(ctx echo.Context) error {
	date, err := bindDateParam(ctx.Param("date"), "date")
	if err != nil {
		return err
	}

	summary, err := api.svc.RollCallSummary(ctx.Request().Context(), ctx.Param("id"), date)
	if err != nil {
		return errors.Wrap(err, "summarizing roll call")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *attendanceApi) percentage(ctx echo.Context) error {
	pct, err := api.svc.Percentage(ctx.Request().Context(), ctx.Param("id"), ctx.QueryParam("section_id"))
	if err != nil {
		return errors.Wrap(err, "computing presence percentage")
	}
	return ctx.JSON(http.StatusOK, pct)
}

func (api *attendanceApi) studentRecords(ctx echo.Context) error {
	recs, err := api.svc.StudentRecords(
		ctx.Request().Context(),
		ctx.Param("id"),
		ctx.QueryParam("section_id"),
		ctx.QueryParam("status"),
	)
	if err != nil {
		return errors.Wrap(err, "querying student records")
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) overLimit(ctx echo.Context) error {
	var threshold float64
	if val := ctx.QueryParam("threshold"); val != "" {
		var err error
		if threshold, err = strconv.ParseFloat(val, 64); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "threshold must be a number")
		}
	}

	flagged, err := api.svc.OverLimit(ctx.Request().Context(), threshold)
	if err != nil {
		return errors.Wrap(err, "querying over-limit students")
	}
	return ctx.JSON(http.StatusOK, flagged)
}

type SectionDateResponse struct {
	Records []attendance.Record `json:"records"`
	Summary attendance.Summary  `json:"summary"`
}
