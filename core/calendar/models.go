package calendar

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/escolado/escolado/core"
)

// Calendar event types.
const (
	EventHoliday = "holiday"
	EventExam    = "exam"
	EventMeeting = "meeting"
	EventTrip    = "trip"
	EventOther   = "other"
)

// Agenda activity types.
const (
	ActivityClass      = "class"
	ActivityPlanning   = "planning"
	ActivityAssessment = "assessment"
	ActivityOther      = "other"
)

type (
	// CalendarEvent is a school-wide or section-scoped calendar entry. A
	// null end date means a single-day event.
	CalendarEvent struct {
		ID          string      `json:"id" db:"id"`
		Title       string      `json:"title" db:"title"`
		Description null.String `json:"description" db:"description"`
		StartDate   time.Time   `json:"start_date" db:"start_date"`
		EndDate     null.Time   `json:"end_date" db:"end_date"`
		EventType   string      `json:"event_type" db:"event_type"`
		SectionID   null.String `json:"section_id" db:"section_id"`
		CreatedAt   time.Time   `json:"created_at" db:"created_at"`
		UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
	}

	// AgendaActivity is one entry in a teacher's personal agenda.
	AgendaActivity struct {
		ID           string      `json:"id" db:"id"`
		TeacherID    string      `json:"teacher_id" db:"teacher_id"`
		Title        string      `json:"title" db:"title"`
		Description  null.String `json:"description" db:"description"`
		Date         time.Time   `json:"date" db:"date"`
		StartTime    string      `json:"start_time" db:"start_time"` // "15:04"
		EndTime      null.String `json:"end_time" db:"end_time"`
		ActivityType string      `json:"activity_type" db:"activity_type"`
		CreatedAt    time.Time   `json:"created_at" db:"created_at"`
		UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
	}

	// MonthEvents groups one month's events for calendar views.
	MonthEvents struct {
		Year   int             `json:"year"`
		Month  time.Month      `json:"month"`
		Events []CalendarEvent `json:"events"`
	}

	// Notification is a queued announcement for a guardian or staff inbox.
	// It stays pending until it is e-mailed or marked delivered out of band.
	Notification struct {
		ID        string      `json:"id" db:"id"`
		Title     string      `json:"title" db:"title"`
		Message   string      `json:"message" db:"message"`
		Recipient string      `json:"recipient" db:"recipient"` // e-mail address
		EventID   null.String `json:"event_id" db:"event_id"`
		Sent      bool        `json:"sent" db:"sent"`
		SentAt    null.Time   `json:"sent_at" db:"sent_at"`
		CreatedAt time.Time   `json:"created_at" db:"created_at"`
	}

	// NotificationList carries the counts the notification inbox displays
	// alongside the notifications themselves.
	NotificationList struct {
		Total         int            `json:"total"`
		Unsent        int            `json:"unsent"`
		Notifications []Notification `json:"notifications"`
	}
)

// NewEvent contains information needed to create a CalendarEvent.
type NewEvent struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"omitempty"`
	StartDate   string `json:"start_date" validate:"required,date_"`
	EndDate     string `json:"end_date" validate:"omitempty,date_"`
	EventType   string `json:"event_type" validate:"required,oneof=holiday exam meeting trip other"`
	SectionID   string `json:"section_id" validate:"omitempty"`
}

func (ne *NewEvent) Validate() error {
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanString(ne.Description)
	ne.EventType = core.CleanString(ne.EventType, true)
	ne.SectionID = core.CleanString(ne.SectionID)
	return core.Validate.Struct(ne)
}

// NewActivity contains information needed to create an AgendaActivity.
type NewActivity struct {
	TeacherID    string `json:"teacher_id" validate:"required"`
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description" validate:"omitempty"`
	Date         string `json:"date" validate:"required,date_"`
	StartTime    string `json:"start_time" validate:"required,time_"`
	EndTime      string `json:"end_time" validate:"omitempty,time_"`
	ActivityType string `json:"activity_type" validate:"required,oneof=class planning assessment other"`
}

func (na *NewActivity) Validate() error {
	na.TeacherID = core.CleanString(na.TeacherID)
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.StartTime = core.CleanString(na.StartTime)
	na.EndTime = core.CleanString(na.EndTime)
	na.ActivityType = core.CleanString(na.ActivityType, true)
	return core.Validate.Struct(na)
}

// NewNotification contains information needed to queue a Notification.
type NewNotification struct {
	Title     string `json:"title" validate:"required"`
	Message   string `json:"message" validate:"required"`
	Recipient string `json:"recipient" validate:"required,email"`
	EventID   string `json:"event_id" validate:"omitempty"`
}

func (nn *NewNotification) Validate() error {
	nn.Title = core.CleanString(nn.Title)
	nn.Message = core.CleanString(nn.Message)
	nn.Recipient = core.CleanString(nn.Recipient, true)
	nn.EventID = core.CleanString(nn.EventID)
	return core.Validate.Struct(nn)
}

// EventFilter narrows event listings; zero fields are ignored.
type EventFilter struct {
	SectionID string
	EventType string
	DateFrom  time.Time
	DateTo    time.Time
}
