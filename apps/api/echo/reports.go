package echoapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/escolado/escolado/core"
	"github.com/escolado/escolado/core/attendance"
	"github.com/escolado/escolado/core/discipline"
	"github.com/escolado/escolado/core/gradebook"
	"github.com/escolado/escolado/core/school"
)

const (
	pdfContentType = "application/pdf"
	pngContentType = "image/png"
)

type (
	reportsDeps struct {
		schoolSvc     *school.Service
		attendanceSvc *attendance.Service
		disciplineSvc *discipline.Service
		gradebookSvc  *gradebook.Service
		docSvc        core.DocumentService
		chartSvc      core.ChartService
	}

	reportsApi struct {
		reportsDeps
	}
)

func registerReportsAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps reportsDeps) {
	api := reportsApi{reportsDeps: deps}

	rg := g.Group("/reports", jwt)

	rg.GET("/students/:id/contract.pdf", api.contractPDF)
	rg.GET("/students/:id/report-card.pdf", api.reportCardPDF)
	rg.GET("/students/:id/absences.pdf", api.studentAbsencesPDF)
	rg.GET("/sections/:id/attendance.pdf", api.sectionAttendancePDF)
	rg.GET("/warnings/:id/notice.pdf", api.warningNoticePDF)

	rg.GET("/students/:id/performance.png", api.studentPerformancePNG)
	rg.GET("/sections/:id/performance.png", api.sectionPerformancePNG)
	rg.GET("/subjects/:id/performance.png", api.subjectPerformancePNG)
}

// PDF reports

func (api *reportsApi) contractPDF(ctx echo.Context) error {
	doc, err := api.schoolSvc.ContractDocument(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return api.renderPDF(ctx, doc)
}

func (api *reportsApi) reportCardPDF(ctx echo.Context) error {
	period, err := bindPeriodParam(ctx)
	if err != nil {
		return err
	}
	doc, err := api.gradebookSvc.ReportCardDocument(ctx.Request().Context(), ctx.Param("id"), period)
	if err != nil {
		return err
	}
	return api.renderPDF(ctx, doc)
}

func (api *reportsApi) warningNoticePDF(ctx echo.Context) error {
	pdf, err := api.disciplineSvc.RenderWarning(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.Blob(http.StatusOK, pdfContentType, pdf)
}

// studentAbsencesPDF renders one student's absence report: the totals, the
// section's session count, the presence percentage and the over-limit flag,
// followed by the absence dates.
func (api *reportsApi) studentAbsencesPDF(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	stu, err := api.schoolSvc.GetStudent(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}
	sectionID := stu.SectionID.String

	absences, err := api.attendanceSvc.StudentRecords(reqCtx, stu.ID, sectionID, attendance.StatusAbsent)
	if err != nil {
		return errors.Wrap(err, "querying absences")
	}
	sessions, err := api.attendanceSvc.SectionSessions(reqCtx, sectionID)
	if err != nil {
		return errors.Wrap(err, "counting sessions")
	}
	pct, err := api.attendanceSvc.Percentage(reqCtx, stu.ID, sectionID)
	if err != nil {
		return errors.Wrap(err, "computing presence percentage")
	}

	doc := core.Document{
		Title:    "Absence Report",
		Subtitle: stu.Name,
		Meta:     []core.DocumentField{{Label: "Student", Value: stu.Name}},
		Footer:   "School Administration",
	}
	if sec, err := api.schoolSvc.GetSection(reqCtx, sectionID); err == nil {
		doc.Meta = append(doc.Meta, core.DocumentField{Label: "Class", Value: sec.Name})
	}
	doc.Meta = append(doc.Meta,
		core.DocumentField{Label: "Absences", Value: strconv.Itoa(len(absences))},
		core.DocumentField{Label: "Sessions", Value: strconv.Itoa(sessions)},
	)
	if pct.OK {
		doc.Meta = append(doc.Meta, core.DocumentField{Label: "Presence", Value: fmt.Sprintf("%.1f%%", pct.Value)})
	} else {
		doc.Meta = append(doc.Meta, core.DocumentField{Label: "Presence", Value: "no data"})
	}
	if sessions > 0 && float64(len(absences))/float64(sessions) > attendance.DefaultAbsenceLimit {
		doc.Paragraphs = append(doc.Paragraphs,
			fmt.Sprintf("This student has exceeded the %.0f%% absence limit.", attendance.DefaultAbsenceLimit*100))
	}
	if len(absences) > 0 {
		doc.Table.Header = []string{"Date", "Recorded by"}
		for _, rec := range absences {
			doc.Table.Rows = append(doc.Table.Rows, []string{rec.Date.Format(core.DateFormat), rec.RecordedBy.String})
		}
	}
	return api.renderPDF(ctx, doc)
}

// sectionAttendancePDF renders the per-student absence and presence table
// for one class section.
func (api *reportsApi) sectionAttendancePDF(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	sec, err := api.schoolSvc.GetSection(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}
	students, err := api.schoolSvc.QueryStudents(reqCtx, school.StudentFilter{SectionID: sec.ID})
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	sessions, err := api.attendanceSvc.SectionSessions(reqCtx, sec.ID)
	if err != nil {
		return errors.Wrap(err, "counting sessions")
	}

	doc := core.Document{
		Title:    "Attendance Report",
		Subtitle: sec.Name,
		Meta: []core.DocumentField{
			{Label: "Class", Value: sec.Name},
			{Label: "Sessions", Value: strconv.Itoa(sessions)},
		},
		Footer: "School Administration",
	}
	doc.Table.Header = []string{"Student", "Absences", "Presence"}
	for _, stu := range students {
		absences, err := api.attendanceSvc.AbsenceCount(reqCtx, stu.ID, sec.ID)
		if err != nil {
			return errors.Wrap(err, "counting absences")
		}
		pct, err := api.attendanceSvc.Percentage(reqCtx, stu.ID, sec.ID)
		if err != nil {
			return errors.Wrap(err, "computing presence percentage")
		}
		presence := "no data"
		if pct.OK {
			presence = fmt.Sprintf("%.1f%%", pct.Value)
		}
		doc.Table.Rows = append(doc.Table.Rows, []string{stu.Name, strconv.Itoa(absences), presence})
	}
	return api.renderPDF(ctx, doc)
}

// PNG charts

func (api *reportsApi) studentPerformancePNG(ctx echo.Context) error {
	chart, err := api.gradebookSvc.StudentPerformance(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return api.renderPNG(ctx, chart)
}

func (api *reportsApi) sectionPerformancePNG(ctx echo.Context) error {
	chart, err := api.gradebookSvc.SectionPerformance(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return api.renderPNG(ctx, chart)
}

func (api *reportsApi) subjectPerformancePNG(ctx echo.Context) error {
	chart, err := api.gradebookSvc.SubjectPerformance(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return api.renderPNG(ctx, chart)
}

func (api *reportsApi) renderPDF(ctx echo.Context, doc core.Document) error {
	pdf, err := api.docSvc.RenderDocument(ctx.Request().Context(), doc)
	if err != nil {
		return errors.Wrap(err, "rendering PDF")
	}
	return ctx.Blob(http.StatusOK, pdfContentType, pdf)
}

func (api *reportsApi) renderPNG(ctx echo.Context, chart core.BarChart) error {
	if len(chart.Labels) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "no data to chart")
	}
	png, err := api.chartSvc.RenderBarChart(ctx.Request().Context(), chart)
	if err != nil {
		return errors.Wrap(err, "rendering chart")
	}
	return ctx.Blob(http.StatusOK, pngContentType, png)
}
