package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rosterhq/crm-calendar-backend/internal/model"
	"go.uber.org/zap"
)

type Api struct {
	handler http.Handler
	logger  *zap.SugaredLogger

	calendar calendarEngine
}

type calendarEngine interface {
	Create(ctx context.Context, info *model.EventCreate) (*model.Event, error)
	Update(ctx context.Context, id uuid.UUID, patch *model.EventPatch) (*model.Event, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	Query(ctx context.Context, filter model.EventsFilter) ([]*model.Event, error)
	EventsToday(ctx context.Context, ref time.Time) ([]*model.Event, error)
	EventsThisWeek(ctx context.Context, ref time.Time) ([]*model.Event, error)
	EventsThisMonth(ctx context.Context, ref time.Time) ([]*model.Event, error)
	CheckConflicts(ctx context.Context, candidate *model.Event) ([]*model.Event, error)
	FindAvailableSlots(ctx context.Context, date time.Time, durationMinutes int, constraints model.SlotConstraints) ([]*model.TimeSlot, error)
	SuggestMeetingTime(ctx context.Context, durationMinutes int, attendees []string, prefs model.SuggestionPrefs) ([]*model.TimeSlot, error)
}

func NewApi(logger *zap.SugaredLogger, calendar calendarEngine) (*Api, error) {
	a := &Api{
		logger:   logger,
		calendar: calendar,
	}
	a.setupHandler()

	return a, nil
}

func (a *Api) setupHandler() {
	middleware.DefaultLogger = func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a.logger.Debugw(r.URL.RequestURI(),
				"addr", r.RemoteAddr,
				"protocol", r.Proto,
				"method", r.Method,
			)
			next.ServeHTTP(w, r)
		})
	}

	r := chi.NewMux()

	r.Use(middleware.Logger, middleware.Recoverer, middleware.StripSlashes)
	r.NotFound(a.notFoundResponse)
	r.MethodNotAllowed(a.methodNotAllowedResponse)

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/events", func(r chi.Router) {
		r.Post("/", a.createEventHandler)
		r.Get("/", a.getEventsHandler)
		r.Get("/today", a.getTodayEventsHandler)
		r.Get("/week", a.getWeekEventsHandler)
		r.Get("/month", a.getMonthEventsHandler)
		r.Post("/conflicts", a.checkConflictsHandler)
		r.Patch("/{id}", a.updateEventHandler)
		r.Post("/{id}/cancel", a.cancelEventHandler)
	})

	r.Get("/slots", a.getSlotsHandler)
	r.Get("/suggestions", a.getSuggestionsHandler)
	r.Get("/export", a.exportEventsHandler)

	a.handler = r
}

func (a *Api) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}
