package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/escolado/escolado/core"
	"github.com/escolado/escolado/core/calendar"
)

type calendarRepository struct {
	db *calendarTables
}

var _ calendar.Repository = (*calendarRepository)(nil) // interface compliance check

func NewCalendarRepository(db *DB) calendar.Repository {
	return &calendarRepository{db: db.calendar}
}

func (repo *calendarRepository) CreateEvent(_ context.Context, evt calendar.CalendarEvent) (calendar.CalendarEvent, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	evt.ID = uuid.New().String()
	repo.db.events[evt.ID] = &evt
	return evt, nil
}

func (repo *calendarRepository) FilterEvents(_ context.Context, filter calendar.EventFilter, orderings ...core.DBOrdering) ([]calendar.CalendarEvent, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	events := make([]calendar.CalendarEvent, 0)
	for _, evt := range repo.db.events {
		if filter.SectionID != "" && (!evt.SectionID.Valid || evt.SectionID.String != filter.SectionID) {
			continue
		}
		if filter.EventType != "" && evt.EventType != filter.EventType {
			continue
		}
		if !filter.DateFrom.IsZero() && evt.StartDate.Before(filter.DateFrom) {
			continue
		}
		if !filter.DateTo.IsZero() && evt.StartDate.After(filter.DateTo) {
			continue
		}
		events = append(events, *evt)
	}
	if len(orderings) == 0 {
		sort.Slice(events, func(i, j int) bool { return events[i].StartDate.Before(events[j].StartDate) })
		return events, nil
	}
	sort.Slice(events, func(i, j int) bool {
		for _, ord := range orderings {
			a, b := &events[i], &events[j]
			if !ord.Ascending {
				a, b = b, a
			}
			switch ord.Field {
			case "title":
				if a.Title != b.Title {
					return a.Title < b.Title
				}
			case "event_type":
				if a.EventType != b.EventType {
					return a.EventType < b.EventType
				}
			case "created_at":
				if !a.CreatedAt.Equal(b.CreatedAt) {
					return a.CreatedAt.Before(b.CreatedAt)
				}
			default: // start_date
				if !a.StartDate.Equal(b.StartDate) {
					return a.StartDate.Before(b.StartDate)
				}
			}
		}
		return false
	})
	return events, nil
}

func (repo *calendarRepository) GetEventByID(_ context.Context, id string) (calendar.CalendarEvent, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if evt, ok := repo.db.events[id]; ok {
		return *evt, nil
	}
	return calendar.CalendarEvent{}, calendar.ErrEventNotFound
}

func (repo *calendarRepository) UpdateEvent(_ context.Context, evt calendar.CalendarEvent) (calendar.CalendarEvent, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.events[evt.ID]; !ok {
		return calendar.CalendarEvent{}, calendar.ErrEventNotFound
	}
	repo.db.events[evt.ID] = &evt
	return evt, nil
}

func (repo *calendarRepository) DeleteEvent(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.events[id]; !ok {
		return calendar.ErrEventNotFound
	}
	delete(repo.db.events, id)
	for _, ntf := range repo.db.notifications {
		if ntf.EventID.Valid && ntf.EventID.String == id {
			ntf.EventID.Valid = false
		}
	}
	return nil
}

func (repo *calendarRepository) CreateActivity(_ context.Context, act calendar.AgendaActivity) (calendar.AgendaActivity, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	act.ID = uuid.New().String()
	repo.db.activities[act.ID] = &act
	return act, nil
}

func (repo *calendarRepository) QueryActivitiesByTeacher(_ context.Context, teacherID string) ([]calendar.AgendaActivity, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	activities := make([]calendar.AgendaActivity, 0)
	for _, act := range repo.db.activities {
		if act.TeacherID == teacherID {
			activities = append(activities, *act)
		}
	}
	sort.Slice(activities, func(i, j int) bool {
		if !activities[i].Date.Equal(activities[j].Date) {
			return activities[i].Date.Before(activities[j].Date)
		}
		return activities[i].StartTime < activities[j].StartTime
	})
	return activities, nil
}

func (repo *calendarRepository) GetActivityByID(_ context.Context, id string) (calendar.AgendaActivity, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if act, ok := repo.db.activities[id]; ok {
		return *act, nil
	}
	return calendar.AgendaActivity{}, calendar.ErrActivityNotFound
}

func (repo *calendarRepository) UpdateActivity(_ context.Context, act calendar.AgendaActivity) (calendar.AgendaActivity, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.activities[act.ID]; !ok {
		return calendar.AgendaActivity{}, calendar.ErrActivityNotFound
	}
	repo.db.activities[act.ID] = &act
	return act, nil
}

func (repo *calendarRepository) DeleteActivity(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.activities[id]; !ok {
		return calendar.ErrActivityNotFound
	}
	delete(repo.db.activities, id)
	return nil
}

func (repo *calendarRepository) CreateNotification(_ context.Context, ntf calendar.Notification) (calendar.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ntf.ID = uuid.New().String()
	repo.db.notifications[ntf.ID] = &ntf
	return ntf, nil
}

func (repo *calendarRepository) QueryAllNotifications(_ context.Context) ([]calendar.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	notifications := make([]calendar.Notification, 0, len(repo.db.notifications))
	for _, ntf := range repo.db.notifications {
		notifications = append(notifications, *ntf)
	}
	sort.Slice(notifications, func(i, j int) bool { return notifications[i].CreatedAt.After(notifications[j].CreatedAt) })
	return notifications, nil
}

func (repo *calendarRepository) GetNotificationByID(_ context.Context, id string) (calendar.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ntf, ok := repo.db.notifications[id]; ok {
		return *ntf, nil
	}
	return calendar.Notification{}, calendar.ErrNotificationNotFound
}

func (repo *calendarRepository) MarkNotificationSent(_ context.Context, id string, at time.Time) (calendar.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ntf, ok := repo.db.notifications[id]
	if !ok {
		return calendar.Notification{}, calendar.ErrNotificationNotFound
	}
	ntf.Sent = true
	ntf.SentAt.SetValid(at)
	return *ntf, nil
}

func (repo *calendarRepository) DeleteNotification(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.notifications[id]; !ok {
		return calendar.ErrNotificationNotFound
	}
	delete(repo.db.notifications, id)
	return nil
}
