package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/escolado/escolado/core/calendar"
)

type calendarApi struct {
	svc *calendar.Service
}

func registerCalendarAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *calendar.Service) {
	api := calendarApi{svc: svc}

	cg := g.Group("/calendar", jwt)

	cg.POST("/events", api.createEvent)
	cg.GET("/events", api.queryEvents)
	cg.GET("/events/by-month", api.eventsByMonth)
	cg.GET("/events/:id", api.retrieveEvent)
	cg.PUT("/events/:id", api.updateEvent)
	cg.DELETE("/events/:id", api.destroyEvent)

	cg.POST("/activities", api.createActivity)
	cg.GET("/activities/:id", api.retrieveActivity)
	cg.PUT("/activities/:id", api.updateActivity)
	cg.DELETE("/activities/:id", api.destroyActivity)
	cg.GET("/teachers/:id/agenda", api.teacherAgenda)

	cg.POST("/notifications", api.createNotification)
	cg.GET("/notifications", api.queryNotifications)
	cg.POST("/notifications/:id/send", api.sendNotification)
	cg.POST("/notifications/:id/sent", api.markNotificationSent)
	cg.DELETE("/notifications/:id", api.destroyNotification)
}

// Events

func (api *calendarApi) createEvent(ctx echo.Context) error {
	var data calendar.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	evt, err := api.svc.CreateEvent(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, evt)
}

func (api *calendarApi) queryEvents(ctx echo.Context) error {
	filter, err := bindEventFilter(ctx)
	if err != nil {
		return err
	}
	orderings, err := bindOrdering(ctx, "title", "start_date", "event_type", "created_at")
	if err != nil {
		return err
	}

	events, err := api.svc.QueryEvents(ctx.Request().Context(), filter, orderings...)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	if events == nil {
		events = []calendar.CalendarEvent{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *calendarApi) eventsByMonth(ctx echo.Context) error {
	filter, err := bindEventFilter(ctx)
	if err != nil {
		return err
	}

	months, err := api.svc.EventsByMonth(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "grouping events by month")
	}
	if months == nil {
		months = []calendar.MonthEvents{}
	}
	return ctx.JSON(http.StatusOK, months)
}

func (api *calendarApi) retrieveEvent(ctx echo.Context) error {
	evt, err := api.svc.GetEvent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *calendarApi) updateEvent(ctx echo.Context) error {
	var data calendar.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	evt, err := api.svc.UpdateEvent(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *calendarApi) destroyEvent(ctx echo.Context) error {
	if err := api.svc.DeleteEvent(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Agenda activities

func (api *calendarApi) createActivity(ctx echo.Context) error {
	var data calendar.NewActivity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewActivity")
	}
	act, err := api.svc.CreateActivity(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, act)
}

func (api *calendarApi) retrieveActivity(ctx echo.Context) error {
	act, err := api.svc.GetActivity(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, act)
}

func (api *calendarApi) updateActivity(ctx echo.Context) error {
	var data calendar.NewActivity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewActivity")
	}
	act, err := api.svc.UpdateActivity(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, act)
}

func (api *calendarApi) destroyActivity(ctx echo.Context) error {
	if err := api.svc.DeleteActivity(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *calendarApi) teacherAgenda(ctx echo.Context) error {
	activities, err := api.svc.TeacherAgenda(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying teacher agenda")
	}
	if activities == nil {
		activities = []calendar.AgendaActivity{}
	}
	return ctx.JSON(http.StatusOK, activities)
}

// Notifications

func (api *calendarApi) createNotification(ctx echo.Context) error {
	var data calendar.NewNotification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotification")
	}
	ntf, err := api.svc.CreateNotification(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ntf)
}

func (api *calendarApi) queryNotifications(ctx echo.Context) error {
	list, err := api.svc.QueryNotifications(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if list.Notifications == nil {
		list.Notifications = []calendar.Notification{}
	}
	return ctx.JSON(http.StatusOK, list)
}

func (api *calendarApi) sendNotification(ctx echo.Context) error {
	ntf, err := api.svc.SendNotification(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ntf)
}

func (api *calendarApi) markNotificationSent(ctx echo.Context) error {
	ntf, err := api.svc.MarkNotificationSent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ntf)
}

func (api *calendarApi) destroyNotification(ctx echo.Context) error {
	if err := api.svc.DeleteNotification(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func bindEventFilter(ctx echo.Context) (calendar.EventFilter, error) {
	filter := calendar.EventFilter{
		SectionID: ctx.QueryParam("section_id"),
		EventType: ctx.QueryParam("event_type"),
	}
	if val := ctx.QueryParam("date_from"); val != "" {
		date, err := bindDateParam(val, "date_from")
		if err != nil {
			return calendar.EventFilter{}, err
		}
		filter.DateFrom = date
	}
	if val := ctx.QueryParam("date_to"); val != "" {
		date, err := bindDateParam(val, "date_to")
		if err != nil {
			return calendar.EventFilter{}, err
		}
		filter.DateTo = date
	}
	return filter, nil
}
