package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"formtrail/internal/audit/models"
	"formtrail/internal/platform/middleware"
	"formtrail/internal/transport/http/shared"
	dErrors "formtrail/pkg/domain-errors"
)

// Service defines the recorder operations the HTTP layer needs.
type Service interface {
	Begin(ctx context.Context, formID string, trackLocation, trackChanges bool) (*models.Session, error)
	Record(ctx context.Context, sessionID uuid.UUID, kind models.Kind, nodePath string, timestamp int64, oldValue string) error
	RecordAnswer(ctx context.Context, sessionID uuid.UUID, newValue string) error
	SetLocation(ctx context.Context, sessionID uuid.UUID, latitude, longitude, accuracy string) error
	End(ctx context.Context, sessionID uuid.UUID, timestamp int64) error
	List(ctx context.Context, sessionID uuid.UUID) ([]models.Snapshot, error)
	Export(ctx context.Context, sessionID uuid.UUID) ([]byte, error)
}

// Handler handles the audit session endpoints.
type Handler struct {
	logger       *slog.Logger
	recorder     Service
	jwtValidator middleware.JWTValidator
}

// New creates a new audit Handler.
func New(recorder Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		recorder:     recorder,
		jwtValidator: jwtValidator,
	}
}

// Register registers the audit routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	sessionRouter := chi.NewRouter()
	sessionRouter.Use(middleware.Recovery(h.logger))
	sessionRouter.Use(middleware.RequestID)
	sessionRouter.Use(middleware.Logger(h.logger))
	sessionRouter.Use(middleware.Timeout(30 * time.Second))
	sessionRouter.Use(middleware.ContentTypeJSON)
	if h.jwtValidator != nil {
		sessionRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	}

	sessionRouter.Post("/sessions", h.handleBeginSession)
	sessionRouter.Post("/sessions/{sessionID}/events", h.handleRecordEvent)
	sessionRouter.Post("/sessions/{sessionID}/answer", h.handleRecordAnswer)
	sessionRouter.Post("/sessions/{sessionID}/location", h.handleSetLocation)
	sessionRouter.Post("/sessions/{sessionID}/close", h.handleCloseSession)
	sessionRouter.Get("/sessions/{sessionID}/events", h.handleListEvents)
	sessionRouter.Get("/sessions/{sessionID}/export", h.handleExport)

	r.Mount("/", sessionRouter)
}

type beginSessionRequest struct {
	FormID        string `json:"form_id"`
	TrackLocation bool   `json:"track_location"`
	TrackChanges  bool   `json:"track_changes"`
}

type beginSessionResponse struct {
	SessionID string `json:"session_id"`
}

func (h *Handler) handleBeginSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req beginSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	sess, err := h.recorder.Begin(ctx, req.FormID, req.TrackLocation, req.TrackChanges)
	if err != nil {
		h.logError(ctx, "failed to begin session", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, beginSessionResponse{SessionID: sess.ID.String()})
}

type recordEventRequest struct {
	// Either a kind label or a form-engine controller code identifies the
	// event; the code path degrades unmapped codes to the unknown kind.
	Kind           string `json:"kind,omitempty"`
	ControllerCode *int   `json:"controller_code,omitempty"`

	NodePath  string  `json:"node_path,omitempty"`
	Timestamp int64   `json:"timestamp"`
	OldValue  *string `json:"old_value,omitempty"`
}

func (h *Handler) handleRecordEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := sessionIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req recordEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Timestamp <= 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "timestamp is required"))
		return
	}

	var kind models.Kind
	switch {
	case req.Kind != "":
		parsed, ok := models.ParseKind(req.Kind)
		if !ok {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown event kind"))
			return
		}
		kind = parsed
	case req.ControllerCode != nil:
		kind = models.KindFromControllerEvent(*req.ControllerCode)
	default:
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "kind or controller_code is required"))
		return
	}

	oldValue := ""
	if req.OldValue != nil {
		oldValue = *req.OldValue
	}

	if err := h.recorder.Record(ctx, sessionID, kind, req.NodePath, req.Timestamp, oldValue); err != nil {
		h.logError(ctx, "failed to record event", err)
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type recordAnswerRequest struct {
	NewValue *string `json:"new_value"`
}

func (h *Handler) handleRecordAnswer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := sessionIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req recordAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	// Absent value normalizes to empty string.
	newValue := ""
	if req.NewValue != nil {
		newValue = *req.NewValue
	}

	if err := h.recorder.RecordAnswer(ctx, sessionID, newValue); err != nil {
		h.logError(ctx, "failed to record answer", err)
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type setLocationRequest struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Accuracy  string `json:"accuracy"`
}

func (h *Handler) handleSetLocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := sessionIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req setLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.recorder.SetLocation(ctx, sessionID, req.Latitude, req.Longitude, req.Accuracy); err != nil {
		h.logError(ctx, "failed to set location", err)
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type closeSessionRequest struct {
	Timestamp int64 `json:"timestamp"`
}

func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := sessionIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req closeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Timestamp <= 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "timestamp is required"))
		return
	}

	if err := h.recorder.End(ctx, sessionID, req.Timestamp); err != nil {
		h.logError(ctx, "failed to close session", err)
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := sessionIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	snaps, err := h.recorder.List(ctx, sessionID)
	if err != nil {
		h.logError(ctx, "failed to list events", err)
		shared.WriteError(w, err)
		return
	}
	if snaps == nil {
		snaps = []models.Snapshot{}
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{"events": snaps})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := sessionIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	csv, err := h.recorder.Export(ctx, sessionID)
	if err != nil {
		h.logError(ctx, "failed to export audit trail", err)
		shared.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="audit.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(csv)
}

func sessionIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "sessionID")
	sessionID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid session id")
	}
	return sessionID, nil
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	// Client mistakes are logged at warn; everything else is an error.
	logFn := h.logger.ErrorContext
	switch dErrors.CodeOf(err) {
	case dErrors.CodeBadRequest, dErrors.CodeNotFound, dErrors.CodeInvalidState, dErrors.CodeConflict:
		logFn = h.logger.WarnContext
	}
	logFn(ctx, msg,
		"error", err.Error(),
		"request_id", middleware.GetRequestID(ctx),
	)
}
