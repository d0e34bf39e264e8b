package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/escolado/escolado/core"
	"github.com/escolado/escolado/core/calendar"
)

type calendarRepository struct {
	db core.DB
}

var _ calendar.Repository = (*calendarRepository)(nil) // interface compliance check

func NewCalendarRepository(db core.DB) *calendarRepository {
	return &calendarRepository{db: db}
}

func (repo calendarRepository) CreateEvent(ctx context.Context, evt calendar.CalendarEvent) (calendar.CalendarEvent, error) {
	evt.ID = uuid.New().String()
	q, args, err := psql.Insert("calendar_events").
		Columns("id", "title", "description", "start_date", "end_date", "event_type", "section_id", "created_at", "updated_at").
		Values(evt.ID, evt.Title, evt.Description, evt.StartDate, evt.EndDate, evt.EventType, evt.SectionID, evt.CreatedAt, evt.UpdatedAt).
		ToSql()
	if err != nil {
		return calendar.CalendarEvent{}, errors.Wrap(err, "building event insert")
	}
	if _, err = repo.db.ExecContext(ctx, q, args...); err != nil {
		return calendar.CalendarEvent{}, errors.Wrap(err, "inserting event")
	}
	return evt, nil
}

func (repo calendarRepository) FilterEvents(ctx context.Context, filter calendar.EventFilter, orderings ...core.DBOrdering) ([]calendar.CalendarEvent, error) {
	qb := psql.Select("*").From("calendar_events")
	if len(orderings) == 0 {
		qb = qb.OrderBy("start_date")
	}
	for _, ord := range orderings {
		qb = qb.OrderBy(ord.String())
	}
	if filter.SectionID != "" {
		qb = qb.Where(sq.Eq{"section_id": filter.SectionID})
	}
	if filter.EventType != "" {
		qb = qb.Where(sq.Eq{"event_type": filter.EventType})
	}
	if !filter.DateFrom.IsZero() {
		qb = qb.Where(sq.GtOrEq{"start_date": filter.DateFrom})
	}
	if !filter.DateTo.IsZero() {
		qb = qb.Where(sq.LtOrEq{"start_date": filter.DateTo})
	}
	q, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building event query")
	}

	events := make([]calendar.CalendarEvent, 0)
	if err = repo.db.SelectContext(ctx, &events, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	return events, nil
}

func (repo calendarRepository) GetEventByID(ctx context.Context, id string) (calendar.CalendarEvent, error) {
	q, args, err := psql.Select("*").From("calendar_events").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return calendar.CalendarEvent{}, errors.Wrap(err, "building event query")
	}
	var evt calendar.CalendarEvent
	if err = repo.db.GetContext(ctx, &evt, q, args...); err != nil {
		return calendar.CalendarEvent{}, trapNoRowsErr(err, calendar.ErrEventNotFound, "getting event")
	}
	return evt, nil
}

func (repo calendarRepository) UpdateEvent(ctx context.Context, evt calendar.CalendarEvent) (calendar.CalendarEvent, error) {
	q, args, err := psql.Update("calendar_events").
		Set("title", evt.Title).
		Set("description", evt.Description).
		Set("start_date", evt.StartDate).
		Set("end_date", evt.EndDate).
		Set("event_type", evt.EventType).
		Set("section_id", evt.SectionID).
		Set("updated_at", evt.UpdatedAt).
		Where(sq.Eq{"id": evt.ID}).
		ToSql()
	if err != nil {
		return calendar.CalendarEvent{}, errors.Wrap(err, "building event update")
	}
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return calendar.CalendarEvent{}, errors.Wrap(err, "updating event")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return calendar.CalendarEvent{}, calendar.ErrEventNotFound
	}
	return evt, nil
}

func (repo calendarRepository) DeleteEvent(ctx context.Context, id string) error {
	q, args, err := psql.Delete("calendar_events").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building event delete")
	}
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrap(err, "deleting event")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return calendar.ErrEventNotFound
	}
	return nil
}

func (repo calendarRepository) CreateActivity(ctx context.Context, act calendar.AgendaActivity) (calendar.AgendaActivity, error) {
	act.ID = uuid.New().String()
	q, args, err := psql.Insert("agenda_activities").
		Columns("id", "teacher_id", "title", "description", "date", "start_time", "end_time", "activity_type", "created_at", "updated_at").
		Values(act.ID, act.TeacherID, act.Title, act.Description, act.Date, act.StartTime, act.EndTime, act.ActivityType, act.CreatedAt, act.UpdatedAt).
		ToSql()
	if err != nil {
		return calendar.AgendaActivity{}, errors.Wrap(err, "building activity insert")
	}
	if _, err = repo.db.ExecContext(ctx, q, args...); err != nil {
		return calendar.AgendaActivity{}, errors.Wrap(err, "inserting activity")
	}
	return act, nil
}

func (repo calendarRepository) QueryActivitiesByTeacher(ctx context.Context, teacherID string) ([]calendar.AgendaActivity, error) {
	q, args, err := psql.Select("*").From("agenda_activities").
		Where(sq.Eq{"teacher_id": teacherID}).
		OrderBy("date", "start_time").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building activity query")
	}

	activities := make([]calendar.AgendaActivity, 0)
	if err = repo.db.SelectContext(ctx, &activities, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying activities")
	}
	return activities, nil
}

func (repo calendarRepository) GetActivityByID(ctx context.Context, id string) (calendar.AgendaActivity, error) {
	q, args, err := psql.Select("*").From("agenda_activities").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return calendar.AgendaActivity{}, errors.Wrap(err, "building activity query")
	}
	var act calendar.AgendaActivity
	if err = repo.db.GetContext(ctx, &act, q, args...); err != nil {
		return calendar.AgendaActivity{}, trapNoRowsErr(err, calendar.ErrActivityNotFound, "getting activity")
	}
	return act, nil
}

func (repo calendarRepository) UpdateActivity(ctx context.Context, act calendar.AgendaActivity) (calendar.AgendaActivity, error) {
	q, args, err := psql.Update("agenda_activities").
		Set("teacher_id", act.TeacherID).
		Set("title", act.Title).
		Set("description", act.Description).
		Set("date", act.Date).
		Set("start_time", act.StartTime).
		Set("end_time", act.EndTime).
		Set("activity_type", act.ActivityType).
		Set("updated_at", act.UpdatedAt).
		Where(sq.Eq{"id": act.ID}).
		ToSql()
	if err != nil {
		return calendar.AgendaActivity{}, errors.Wrap(err, "building activity update")
	}
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return calendar.AgendaActivity{}, errors.Wrap(err, "updating activity")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return calendar.AgendaActivity{}, calendar.ErrActivityNotFound
	}
	return act, nil
}

func (repo calendarRepository) DeleteActivity(ctx context.Context, id string) error {
	q, args, err := psql.Delete("agenda_activities").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building activity delete")
	}
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrap(err, "deleting activity")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return calendar.ErrActivityNotFound
	}
	return nil
}

func (repo calendarRepository) CreateNotification(ctx context.Context, ntf calendar.Notification) (calendar.Notification, error) {
	ntf.ID = uuid.New().String()
	q, args, err := psql.Insert("notifications").
		Columns("id", "title", "message", "recipient", "event_id", "sent", "sent_at", "created_at").
		Values(ntf.ID, ntf.Title, ntf.Message, ntf.Recipient, ntf.EventID, ntf.Sent, ntf.SentAt, ntf.CreatedAt).
		ToSql()
	if err != nil {
		return calendar.Notification{}, errors.Wrap(err, "building notification insert")
	}
	if _, err = repo.db.ExecContext(ctx, q, args...); err != nil {
		return calendar.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return ntf, nil
}

func (repo calendarRepository) QueryAllNotifications(ctx context.Context) ([]calendar.Notification, error) {
	q, args, err := psql.Select("*").From("notifications").OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building notification query")
	}

	notifications := make([]calendar.Notification, 0)
	if err = repo.db.SelectContext(ctx, &notifications, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	return notifications, nil
}

func (repo calendarRepository) GetNotificationByID(ctx context.Context, id string) (calendar.Notification, error) {
	q, args, err := psql.Select("*").From("notifications").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return calendar.Notification{}, errors.Wrap(err, "building notification query")
	}
	var ntf calendar.Notification
	if err = repo.db.GetContext(ctx, &ntf, q, args...); err != nil {
		return calendar.Notification{}, trapNoRowsErr(err, calendar.ErrNotificationNotFound, "getting notification")
	}
	return ntf, nil
}

func (repo calendarRepository) MarkNotificationSent(ctx context.Context, id string, at time.Time) (calendar.Notification, error) {
	q, args, err := psql.Update("notifications").
		Set("sent", true).
		Set("sent_at", at).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING *").
		ToSql()
	if err != nil {
		return calendar.Notification{}, errors.Wrap(err, "building notification update")
	}
	var ntf calendar.Notification
	if err = repo.db.GetContext(ctx, &ntf, q, args...); err != nil {
		return calendar.Notification{}, trapNoRowsErr(err, calendar.ErrNotificationNotFound, "marking notification sent")
	}
	return ntf, nil
}

func (repo calendarRepository) DeleteNotification(ctx context.Context, id string) error {
	q, args, err := psql.Delete("notifications").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building notification delete")
	}
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrap(err, "deleting notification")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return calendar.ErrNotificationNotFound
	}
	return nil
}
