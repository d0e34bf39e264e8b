package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

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
	dummydb "github.com/escolado/escolado/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testServices struct {
	staffSvc      *staff.Service
	schoolSvc     *school.Service
	inventorySvc  *inventory.Service
	attendanceSvc *attendance.Service
	disciplineSvc *discipline.Service
	gradebookSvc  *gradebook.Service
	calendarSvc   *calendar.Service
	docSvc        *pdfsvc.DummyService
}

func setup(t *testing.T) (Server, testServices) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}

	mailSvc := emailsvc.NewConsoleServiceMock()
	emailsvc.ClearSentMessages()
	docSvc := pdfsvc.NewDummyService()

	svcs := testServices{
		staffSvc:      staff.NewService(dummydb.NewStaffRepository(db), mailSvc),
		schoolSvc:     school.NewService(dummydb.NewSchoolRepository(db)),
		inventorySvc:  inventory.NewService(dummydb.NewInventoryRepository(db)),
		attendanceSvc: attendance.NewService(dummydb.NewAttendanceRepository(db)),
		gradebookSvc:  nil,
		calendarSvc:   calendar.NewService(dummydb.NewCalendarRepository(db), mailSvc),
		docSvc:        docSvc,
	}
	svcs.disciplineSvc = discipline.NewService(dummydb.NewDisciplineRepository(db), svcs.schoolSvc, docSvc, mailSvc)
	svcs.gradebookSvc = gradebook.NewService(dummydb.NewGradebookRepository(db), svcs.schoolSvc, svcs.attendanceSvc)

	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "TEST : ", log.LstdFlags), core.Conf)
	logger.Enable(false)

	srv := NewServer(ServerDeps{
		DisableReqLogs: true,
		Logger:         logger,

		StaffSvc:      svcs.staffSvc,
		SchoolSvc:     svcs.schoolSvc,
		InventorySvc:  svcs.inventorySvc,
		AttendanceSvc: svcs.attendanceSvc,
		DisciplineSvc: svcs.disciplineSvc,
		GradebookSvc:  svcs.gradebookSvc,
		CalendarSvc:   svcs.calendarSvc,

		DocSvc:   docSvc,
		ChartSvc: chartsvc.NewChartService(),
	})
	return srv, svcs
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func createTestStaff(t *testing.T, svc *staff.Service) staff.Staff {
	stf, err := svc.Create(context.Background(), staff.NewStaff{
		Name:     "Test Admin",
		Username: "admin",
		Email:    "admin@escolado.test",
		Password: "G00d#Pa55word",
	})
	if err != nil {
		t.Fatalf("createTestStaff() failed: %v", err)
	}
	return stf
}

func getToken(t *testing.T, stf staff.Staff) string {
	claims := GetStaffClaims(stf)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
