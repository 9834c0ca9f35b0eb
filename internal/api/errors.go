package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rosterhq/crm-calendar-backend/internal/model"
)

func (a *Api) logError(_ *http.Request, err error) {
	a.logger.Errorw("server error", "error", err)
}

func (a *Api) errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	data := map[string]interface{}{"error": message}

	if err := a.writeJSON(w, status, data, nil); err != nil {
		a.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (a *Api) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	a.logError(r, err)

	message := "the server encountered a problem and could not process your request"
	a.errorResponse(w, r, http.StatusInternalServerError, message)
}

func (a *Api) clientErrorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	a.logger.Debugw("client error", "err", message)
	a.errorResponse(w, r, status, message)
}

func (a *Api) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	a.clientErrorResponse(w, r, http.StatusNotFound, message)
}

func (a *Api) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("the %s method is not supported for this resource", r.Method)
	a.clientErrorResponse(w, r, http.StatusMethodNotAllowed, message)
}

func (a *Api) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	a.clientErrorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (a *Api) failedValidationResponse(w http.ResponseWriter, r *http.Request, errors map[string]string) {
	a.clientErrorResponse(w, r, http.StatusUnprocessableEntity, errors)
}

func (a *Api) conflictResponse(w http.ResponseWriter, r *http.Request, conflictErr *model.ConflictError) {
	conflicts, _ := mapSlice(conflictErr.Conflicts, mapToEventResp)

	data := map[string]interface{}{
		"error":          conflictErr.Error(),
		"conflict_count": len(conflictErr.Conflicts),
		"conflicts":      conflicts,
	}

	if err := a.writeJSON(w, http.StatusConflict, data, nil); err != nil {
		a.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// engineErrorResponse maps engine error taxonomy to HTTP statuses.
func (a *Api) engineErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var conflictErr *model.ConflictError
	var stateErr *model.InvalidStateError
	var validationErr *model.ValidationError

	switch {
	case errors.Is(err, model.ErrNoRecord):
		a.notFoundResponse(w, r)
	case errors.As(err, &conflictErr):
		a.conflictResponse(w, r, conflictErr)
	case errors.As(err, &stateErr):
		a.clientErrorResponse(w, r, http.StatusConflict, stateErr.Error())
	case errors.As(err, &validationErr):
		a.failedValidationResponse(w, r, map[string]string{validationErr.Field: validationErr.Message})
	default:
		a.serverErrorResponse(w, r, err)
	}
}
