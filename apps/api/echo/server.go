package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/escolado/escolado/core"
	"github.com/escolado/escolado/core/attendance"
	"github.com/escolado/escolado/core/calendar"
	"github.com/escolado/escolado/core/discipline"
	"github.com/escolado/escolado/core/gradebook"
	"github.com/escolado/escolado/core/inventory"
	"github.com/escolado/escolado/core/school"
	"github.com/escolado/escolado/core/staff"
)

type (
	// ServerDeps carries everything the API surface needs.
	ServerDeps struct {
		Address        string
		DisableReqLogs bool
		Logger         core.Logger

		StaffSvc      *staff.Service
		SchoolSvc     *school.Service
		InventorySvc  *inventory.Service
		AttendanceSvc *attendance.Service
		DisciplineSvc *discipline.Service
		GradebookSvc  *gradebook.Service
		CalendarSvc   *calendar.Service

		DocSvc   core.DocumentService
		ChartSvc core.ChartService
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerStaffAPI(v1, jwt, s.deps.StaffSvc)
	registerSchoolAPI(v1, jwt, s.deps.SchoolSvc)
	registerInventoryAPI(v1, jwt, s.deps.InventorySvc)
	registerAttendanceAPI(v1, jwt, s.deps.AttendanceSvc)
	registerDisciplineAPI(v1, jwt, s.deps.DisciplineSvc)
	registerGradebookAPI(v1, jwt, s.deps.GradebookSvc)
	registerCalendarAPI(v1, jwt, s.deps.CalendarSvc)
	registerReportsAPI(v1, jwt, reportsDeps{
		schoolSvc:     s.deps.SchoolSvc,
		attendanceSvc: s.deps.AttendanceSvc,
		disciplineSvc: s.deps.DisciplineSvc,
		gradebookSvc:  s.deps.GradebookSvc,
		docSvc:        s.deps.DocSvc,
		chartSvc:      s.deps.ChartSvc,
	})
}

// Start runs the listener and reports its terminal error on Errors();
// run it in a goroutine.
func (s *server) Start() {
	s.errs <- s.app.Start(s.deps.Address)
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errs
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the Escolado API!")
}
