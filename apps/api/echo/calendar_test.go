package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/escolado/escolado/core/calendar"
	emailsvc "github.com/escolado/escolado/services/email"
)

func Test_calendarApi_events(t *testing.T) {
	srv, svcs := setup(t)
	token := getToken(t, createTestStaff(t, svcs.staffSvc))

	var evt calendar.CalendarEvent
	t.Run("create", func(t *testing.T) {
		body := marchallObj(t, calendar.NewEvent{
			Title:     "Mid-year exams",
			StartDate: "2026-06-15",
			EndDate:   "2026-06-19",
			EventType: "exam",
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/calendar/events", token, body)
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &evt); err != nil {
			t.Fatalf("unmarshalling CalendarEvent failed: %v", err)
		}
	})

	t.Run("inverted range is 400", func(t *testing.T) {
		body := marchallObj(t, calendar.NewEvent{
			Title:     "Backwards",
			StartDate: "2026-06-19",
			EndDate:   "2026-06-15",
			EventType: "exam",
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/calendar/events", token, body)
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"end_date": "start date must not be after end date"}),
		}, rec)
	})

	t.Run("by month", func(t *testing.T) {
		if _, err := svcs.calendarSvc.CreateEvent(context.Background(), calendar.NewEvent{
			Title:     "Carnival",
			StartDate: "2026-02-16",
			EventType: "holiday",
		}); err != nil {
			t.Fatalf("CreateEvent() failed: %v", err)
		}

		req, rec := newAuthRequest(http.MethodGet, "/v1/calendar/events/by-month", token)
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("by-month failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var months []calendar.MonthEvents
		if err := json.Unmarshal(rec.Body.Bytes(), &months); err != nil {
			t.Fatalf("unmarshalling months failed: %v", err)
		}
		if len(months) != 2 {
			t.Fatalf("months = %d; want 2", len(months))
		}
		if months[0].Month != 2 || months[1].Month != 6 {
			t.Errorf("months out of order: %+v", months)
		}
	})

	t.Run("bad date filter is 400", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/calendar/events?date_from=junk", token)
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"date_from": "must be a valid date in YYYY-MM-DD format"}),
		}, rec)
	})

	t.Run("ordering", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/calendar/events?ordering=-start_date", token)
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("query failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var events []calendar.CalendarEvent
		if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
			t.Fatalf("unmarshalling events failed: %v", err)
		}
		if len(events) != 2 || events[0].Title != "Mid-year exams" {
			t.Errorf("events = %+v; want latest start date first", events)
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/calendar/events?ordering=section_id", token)
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"ordering": `cannot order by "section_id"`}),
		}, rec)
	})

	t.Run("delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/calendar/events/"+evt.ID, token)
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("delete failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/calendar/events/"+evt.ID, token)
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "event not found"}),
		}, rec)
	})
}

func Test_calendarApi_agenda(t *testing.T) {
	srv, svcs := setup(t)
	token := getToken(t, createTestStaff(t, svcs.staffSvc))

	create := func(title, date, start string) {
		body := marchallObj(t, calendar.NewActivity{
			TeacherID:    "tch-1",
			Title:        title,
			Date:         date,
			StartTime:    start,
			ActivityType: "class",
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/calendar/activities", token, body)
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create activity failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
	}
	create("Algebra", "2026-03-03", "10:00")
	create("Geometry", "2026-03-02", "08:00")

	req, rec := newAuthRequest(http.MethodGet, "/v1/calendar/teachers/tch-1/agenda", token)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("agenda failed! code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var agenda []calendar.AgendaActivity
	if err := json.Unmarshal(rec.Body.Bytes(), &agenda); err != nil {
		t.Fatalf("unmarshalling agenda failed: %v", err)
	}
	if len(agenda) != 2 || agenda[0].Title != "Geometry" {
		t.Errorf("agenda = %+v; want Geometry first", agenda)
	}
}

func Test_calendarApi_notifications(t *testing.T) {
	srv, svcs := setup(t)
	token := getToken(t, createTestStaff(t, svcs.staffSvc))
	emailsvc.ClearSentMessages() // drop the staff welcome e-mail

	var ntf calendar.Notification
	t.Run("create", func(t *testing.T) {
		body := marchallObj(t, calendar.NewNotification{
			Title:     "Parents meeting",
			Message:   "The meeting starts at 19:00 in the main hall.",
			Recipient: "maria.souza@example.com",
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/calendar/notifications", token, body)
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &ntf); err != nil {
			t.Fatalf("unmarshalling Notification failed: %v", err)
		}
	})

	t.Run("bad recipient is 400", func(t *testing.T) {
		body := marchallObj(t, calendar.NewNotification{Title: "x", Message: "y", Recipient: "not-an-email"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/calendar/notifications", token, body)
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v; body = %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})

	t.Run("list carries counts", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/calendar/notifications", token)
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("list failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var list calendar.NotificationList
		if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
			t.Fatalf("unmarshalling NotificationList failed: %v", err)
		}
		if list.Total != 1 || list.Unsent != 1 || len(list.Notifications) != 1 {
			t.Errorf("list = %+v; want 1 total, 1 unsent", list)
		}
	})

	t.Run("send", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/calendar/notifications/"+ntf.ID+"/send", token)
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("send failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var sent calendar.Notification
		if err := json.Unmarshal(rec.Body.Bytes(), &sent); err != nil {
			t.Fatalf("unmarshalling Notification failed: %v", err)
		}
		if !sent.Sent || !sent.SentAt.Valid {
			t.Errorf("notification = %+v; want sent with a delivery time", sent)
		}
		if len(emailsvc.SentMessages) != 1 {
			t.Fatalf("sent messages = %d; want 1", len(emailsvc.SentMessages))
		}
		if subj := emailsvc.SentMessages[0].Subject; subj != "Parents meeting" {
			t.Errorf("subject = %q; want the notification title", subj)
		}
	})

	t.Run("unknown notification is 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/calendar/notifications/nope/sent", token)
		srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "notification not found"}),
		}, rec)
	})

	t.Run("delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/calendar/notifications/"+ntf.ID, token)
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("delete failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})
}
