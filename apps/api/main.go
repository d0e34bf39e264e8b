package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/escolado/escolado/apps/api/echo"
	"github.com/escolado/escolado/core"
	"github.com/escolado/escolado/core/attendance"
	"github.com/escolado/escolado/core/calendar"
	"github.com/escolado/escolado/core/discipline"
	"github.com/escolado/escolado/core/gradebook"
	"github.com/escolado/escolado/core/inventory"
	"github.com/escolado/escolado/core/school"
	"github.com/escolado/escolado/core/staff"
	chartsvc "github.com/escolado/escolado/services/chart"
	emailsvc "github.com/escolado/escolado/services/email"
	logsvc "github.com/escolado/escolado/services/logger"
	pdfsvc "github.com/escolado/escolado/services/pdf"
	"github.com/escolado/escolado/storage/database"
	"github.com/escolado/escolado/storage/database/sqlxrepos"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.Conf

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	docSvc := pdfsvc.NewGofpdfService()
	chartSvc := chartsvc.NewChartService()

	staffSvc := staff.NewService(sqlxrepos.NewStaffRepository(db), mailSvc)
	schoolSvc := school.NewService(sqlxrepos.NewSchoolRepository(db))
	inventorySvc := inventory.NewService(sqlxrepos.NewInventoryRepository(db))
	attendanceSvc := attendance.NewService(sqlxrepos.NewAttendanceRepository(db))
	disciplineSvc := discipline.NewService(sqlxrepos.NewDisciplineRepository(db), schoolSvc, docSvc, mailSvc)
	gradebookSvc := gradebook.NewService(sqlxrepos.NewGradebookRepository(db), schoolSvc, attendanceSvc)
	calendarSvc := calendar.NewService(sqlxrepos.NewCalendarRepository(db), mailSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Address:       conf.Server.Address(),
		Logger:        logger,
		StaffSvc:      staffSvc,
		SchoolSvc:     schoolSvc,
		InventorySvc:  inventorySvc,
		AttendanceSvc: attendanceSvc,
		DisciplineSvc: disciplineSvc,
		GradebookSvc:  gradebookSvc,
		CalendarSvc:   calendarSvc,
		DocSvc:        docSvc,
		ChartSvc:      chartSvc,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}
