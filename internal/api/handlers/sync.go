package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/channel-sync/backend/internal/api/middleware"
	"github.com/channel-sync/backend/internal/channex"
	"github.com/channel-sync/backend/internal/mapping"
	"github.com/channel-sync/backend/internal/syncer"
)

// SyncEngine runs the orchestrator flows for one entity.
type SyncEngine interface {
	Check(ctx context.Context, kind mapping.Kind, localID string) (syncer.Status, error)
	Sync(ctx context.Context, kind mapping.Kind, localID string) (syncer.Status, error)
}

// CheckResponse is the body of GET /api/sync/{kind}/{id}.
type CheckResponse struct {
	State           syncer.State `json:"state"`
	RemoteID        string       `json:"remote_id,omitempty"`
	ExistsInChannex bool         `json:"exists_in_channex"`
}

// CheckSync returns a handler that resolves whether an entity exists remotely.
func CheckSync(engine SyncEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, id, ok := entityVars(w, r)
		if !ok {
			return
		}

		status, err := engine.Check(r.Context(), kind, id)
		if err != nil {
			writeSyncError(w, status, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, CheckResponse{
			State:           status.State,
			RemoteID:        status.RemoteID,
			ExistsInChannex: status.ExistsInChannex,
		})
	}
}

// RunSync returns a handler that creates or updates an entity remotely.
func RunSync(engine SyncEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, id, ok := entityVars(w, r)
		if !ok {
			return
		}

		status, err := engine.Sync(r.Context(), kind, id)
		if err != nil {
			writeSyncError(w, status, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, status)
	}
}

func entityVars(w http.ResponseWriter, r *http.Request) (mapping.Kind, string, bool) {
	vars := mux.Vars(r)
	kind := mapping.Kind(vars["kind"])
	if !kind.Valid() {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest,
			fmt.Sprintf("Unknown entity kind %q", vars["kind"]))
		return "", "", false
	}
	return kind, vars["id"], true
}

// SyncErrorDetails is the details object of a failed sync response.
type SyncErrorDetails struct {
	ErrorClass syncer.ErrorClass   `json:"error_class"`
	Fields     map[string][]string `json:"fields,omitempty"`
	Status     *syncer.Status      `json:"status,omitempty"`
}

// writeSyncError maps an engine error to a status code by its class.
func writeSyncError(w http.ResponseWriter, status syncer.Status, err error) {
	if errors.Is(err, syncer.ErrUnknownKind) {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, err.Error())
		return
	}

	class := syncer.Classify(err)
	details := SyncErrorDetails{ErrorClass: class}
	if status.LocalID != "" {
		details.Status = &status
	}
	var verr *channex.ValidationError
	if errors.As(err, &verr) {
		details.Fields = verr.Details
	}

	code, errCode := http.StatusBadGateway, middleware.ErrUpstream
	switch class {
	case syncer.ClassInFlight:
		code, errCode = http.StatusConflict, middleware.ErrConflict
	case syncer.ClassPrecondition:
		code, errCode = http.StatusUnprocessableEntity, middleware.ErrPrecondition
	case syncer.ClassValidation, syncer.ClassRetried:
		code, errCode = http.StatusUnprocessableEntity, middleware.ErrValidation
	case syncer.ClassNotFound:
		code, errCode = http.StatusNotFound, middleware.ErrNotFound
	}
	middleware.WriteErrorWithDetails(w, code, errCode, err.Error(), details)
}
