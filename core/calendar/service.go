package calendar

import (
	"context"
	"net/mail"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/escolado/escolado/core"
)

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrActivityNotFound     = errors.New("activity not found")
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrInvalidDateRange rejects events whose start date falls after their
	// end date.
	ErrInvalidDateRange = errors.New("start date must not be after end date")
)

type (
	Repository interface {
		CreateEvent(ctx context.Context, evt CalendarEvent) (CalendarEvent, error)
		// FilterEvents lists events matching filter; with no orderings
		// events come back by ascending start date.
		FilterEvents(ctx context.Context, filter EventFilter, orderings ...core.DBOrdering) ([]CalendarEvent, error)
		GetEventByID(ctx context.Context, id string) (CalendarEvent, error)
		UpdateEvent(ctx context.Context, evt CalendarEvent) (CalendarEvent, error)
		DeleteEvent(ctx context.Context, id string) error

		CreateActivity(ctx context.Context, act AgendaActivity) (AgendaActivity, error)
		// QueryActivitiesByTeacher returns the teacher's agenda ordered by
		// date then start time.
		QueryActivitiesByTeacher(ctx context.Context, teacherID string) ([]AgendaActivity, error)
		GetActivityByID(ctx context.Context, id string) (AgendaActivity, error)
		UpdateActivity(ctx context.Context, act AgendaActivity) (AgendaActivity, error)
		DeleteActivity(ctx context.Context, id string) error

		CreateNotification(ctx context.Context, ntf Notification) (Notification, error)
		// QueryAllNotifications returns every notification, newest first.
		QueryAllNotifications(ctx context.Context) ([]Notification, error)
		GetNotificationByID(ctx context.Context, id string) (Notification, error)
		MarkNotificationSent(ctx context.Context, id string, at time.Time) (Notification, error)
		DeleteNotification(ctx context.Context, id string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

func (s *Service) CreateEvent(ctx context.Context, ne NewEvent) (CalendarEvent, error) {
	if err := ne.Validate(); err != nil {
		return CalendarEvent{}, err
	}
	start, err := core.ParseDate(ne.StartDate)
	if err != nil {
		return CalendarEvent{}, core.NewValidationError(err, core.FieldError{Field: "start_date", Error: "invalid date"})
	}

	now := time.Now().UTC()
	evt := CalendarEvent{
		Title:     ne.Title,
		StartDate: start,
		EventType: ne.EventType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ne.Description != "" {
		evt.Description.SetValid(ne.Description)
	}
	if ne.SectionID != "" {
		evt.SectionID.SetValid(ne.SectionID)
	}
	if ne.EndDate != "" {
		end, err := core.ParseDate(ne.EndDate)
		if err != nil {
			return CalendarEvent{}, core.NewValidationError(err, core.FieldError{Field: "end_date", Error: "invalid date"})
		}
		if start.After(end) {
			return CalendarEvent{}, core.NewValidationError(ErrInvalidDateRange,
				core.FieldError{Field: "end_date", Error: ErrInvalidDateRange.Error()})
		}
		evt.EndDate.SetValid(end)
	}
	return s.repo.CreateEvent(ctx, evt)
}

func (s *Service) QueryEvents(ctx context.Context, filter EventFilter, orderings ...core.DBOrdering) ([]CalendarEvent, error) {
	return s.repo.FilterEvents(ctx, filter, orderings...)
}

func (s *Service) GetEvent(ctx context.Context, id string) (CalendarEvent, error) {
	return s.repo.GetEventByID(ctx, id)
}

func (s *Service) UpdateEvent(ctx context.Context, id string, ne NewEvent) (CalendarEvent, error) {
	if err := ne.Validate(); err != nil {
		return CalendarEvent{}, err
	}
	evt, err := s.repo.GetEventByID(ctx, id)
	if err != nil {
		return CalendarEvent{}, err
	}
	start, err := core.ParseDate(ne.StartDate)
	if err != nil {
		return CalendarEvent{}, core.NewValidationError(err, core.FieldError{Field: "start_date", Error: "invalid date"})
	}

	evt.Title = ne.Title
	evt.StartDate = start
	evt.EventType = ne.EventType
	evt.Description.Valid = false
	if ne.Description != "" {
		evt.Description.SetValid(ne.Description)
	}
	evt.SectionID.Valid = false
	if ne.SectionID != "" {
		evt.SectionID.SetValid(ne.SectionID)
	}
	evt.EndDate.Valid = false
	if ne.EndDate != "" {
		end, err := core.ParseDate(ne.EndDate)
		if err != nil {
			return CalendarEvent{}, core.NewValidationError(err, core.FieldError{Field: "end_date", Error: "invalid date"})
		}
		if start.After(end) {
			return CalendarEvent{}, core.NewValidationError(ErrInvalidDateRange,
				core.FieldError{Field: "end_date", Error: ErrInvalidDateRange.Error()})
		}
		evt.EndDate.SetValid(end)
	}
	evt.UpdatedAt = time.Now().UTC()
	return s.repo.UpdateEvent(ctx, evt)
}

func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	return s.repo.DeleteEvent(ctx, id)
}

// EventsByMonth groups the matching events by (year, month) of their start
// date, months ordered chronologically and events by start date within.
func (s *Service) EventsByMonth(ctx context.Context, filter EventFilter) ([]MonthEvents, error) {
	events, err := s.repo.FilterEvents(ctx, filter)
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartDate.Before(events[j].StartDate) })

	var months []MonthEvents
	for _, evt := range events {
		y, m := evt.StartDate.Year(), evt.StartDate.Month()
		if n := len(months); n > 0 && months[n-1].Year == y && months[n-1].Month == m {
			months[n-1].Events = append(months[n-1].Events, evt)
			continue
		}
		months = append(months, MonthEvents{Year: y, Month: m, Events: []CalendarEvent{evt}})
	}
	return months, nil
}

func (s *Service) CreateActivity(ctx context.Context, na NewActivity) (AgendaActivity, error) {
	if err := na.Validate(); err != nil {
		return AgendaActivity{}, err
	}
	date, err := core.ParseDate(na.Date)
	if err != nil {
		return AgendaActivity{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: "invalid date"})
	}

	now := time.Now().UTC()
	act := AgendaActivity{
		TeacherID:    na.TeacherID,
		Title:        na.Title,
		Date:         date,
		StartTime:    na.StartTime,
		ActivityType: na.ActivityType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if na.Description != "" {
		act.Description.SetValid(na.Description)
	}
	if na.EndTime != "" {
		act.EndTime.SetValid(na.EndTime)
	}
	return s.repo.CreateActivity(ctx, act)
}

// TeacherAgenda lists one teacher's activities ordered by date, then start
// time.
func (s *Service) TeacherAgenda(ctx context.Context, teacherID string) ([]AgendaActivity, error) {
	return s.repo.QueryActivitiesByTeacher(ctx, teacherID)
}

func (s *Service) GetActivity(ctx context.Context, id string) (AgendaActivity, error) {
	return s.repo.GetActivityByID(ctx, id)
}

func (s *Service) UpdateActivity(ctx context.Context, id string, na NewActivity) (AgendaActivity, error) {
	if err := na.Validate(); err != nil {
		return AgendaActivity{}, err
	}
	act, err := s.repo.GetActivityByID(ctx, id)
	if err != nil {
		return AgendaActivity{}, err
	}
	date, err := core.ParseDate(na.Date)
	if err != nil {
		return AgendaActivity{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: "invalid date"})
	}

	act.TeacherID = na.TeacherID
	act.Title = na.Title
	act.Date = date
	act.StartTime = na.StartTime
	act.ActivityType = na.ActivityType
	act.Description.Valid = false
	if na.Description != "" {
		act.Description.SetValid(na.Description)
	}
	act.EndTime.Valid = false
	if na.EndTime != "" {
		act.EndTime.SetValid(na.EndTime)
	}
	act.UpdatedAt = time.Now().UTC()
	return s.repo.UpdateActivity(ctx, act)
}

func (s *Service) DeleteActivity(ctx context.Context, id string) error {
	return s.repo.DeleteActivity(ctx, id)
}

// Notifications

func (s *Service) CreateNotification(ctx context.Context, nn NewNotification) (Notification, error) {
	if err := nn.Validate(); err != nil {
		return Notification{}, err
	}

	ntf := Notification{
		Title:     nn.Title,
		Message:   nn.Message,
		Recipient: nn.Recipient,
		CreatedAt: time.Now().UTC(),
	}
	if nn.EventID != "" {
		if _, err := s.repo.GetEventByID(ctx, nn.EventID); err != nil {
			return Notification{}, core.NewValidationError(err, core.FieldError{Field: "event_id", Error: "unknown event"})
		}
		ntf.EventID.SetValid(nn.EventID)
	}
	return s.repo.CreateNotification(ctx, ntf)
}

// QueryNotifications lists every notification, newest first, with the total
// and pending counts the notification inbox displays.
func (s *Service) QueryNotifications(ctx context.Context) (NotificationList, error) {
	notifications, err := s.repo.QueryAllNotifications(ctx)
	if err != nil {
		return NotificationList{}, err
	}

	list := NotificationList{
		Total:         len(notifications),
		Notifications: notifications,
	}
	for _, ntf := range notifications {
		if !ntf.Sent {
			list.Unsent++
		}
	}
	return list, nil
}

// MarkNotificationSent stamps a notification as delivered out of band, eg.
// when it was read out at a parents meeting instead of e-mailed.
func (s *Service) MarkNotificationSent(ctx context.Context, id string) (Notification, error) {
	return s.repo.MarkNotificationSent(ctx, id, time.Now().UTC())
}

// SendNotification e-mails the notification to its recipient and stamps the
// delivery time.
func (s *Service) SendNotification(ctx context.Context, id string) (Notification, error) {
	ntf, err := s.repo.GetNotificationByID(ctx, id)
	if err != nil {
		return Notification{}, err
	}

	s.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Address: ntf.Recipient}},
		Subject: ntf.Title,
		BodyStr: ntf.Message,
	})
	return s.repo.MarkNotificationSent(ctx, id, time.Now().UTC())
}

func (s *Service) DeleteNotification(ctx context.Context, id string) error {
	return s.repo.DeleteNotification(ctx, id)
}
