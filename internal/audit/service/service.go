package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"formtrail/internal/audit/metrics"
	"formtrail/internal/audit/models"
	eventStore "formtrail/internal/audit/store/event"
	sessionStore "formtrail/internal/audit/store/session"
	dErrors "formtrail/pkg/domain-errors"
	"formtrail/pkg/platform/sentinel"
)

// Service is the audit recorder. It owns the lifecycle of audit sessions:
// opening and closing interval events, stamping locations, applying answer
// changes and exporting the finished trail as CSV.
type Service struct {
	sessions sessionStore.Store
	events   eventStore.Store
	logger   *slog.Logger
	metrics  *metrics.Metrics

	// now is swappable for tests.
	now func() time.Time
}

func New(sessions sessionStore.Store, events eventStore.Store, logger *slog.Logger, m *metrics.Metrics) (*Service, error) {
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	if events == nil {
		return nil, errors.New("event store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sessions: sessions,
		events:   events,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}, nil
}

// WithClock overrides the service clock. Test helper.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Begin starts a new audit session and records its form-start event.
func (s *Service) Begin(ctx context.Context, formID string, trackLocation, trackChanges bool) (*models.Session, error) {
	if strings.TrimSpace(formID) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "form_id is required")
	}

	now := s.now()
	sess := &models.Session{
		ID:            uuid.New(),
		FormID:        formID,
		TrackLocation: trackLocation,
		TrackChanges:  trackChanges,
		TouchedAt:     now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	start := models.NewTracked(now.UnixMilli(), models.KindFormStart, trackLocation, trackChanges, nil, "")
	if err := s.persist(ctx, sess.ID, start); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementSessionsStarted()
	}
	s.logger.InfoContext(ctx, "audit session started",
		"session_id", sess.ID.String(),
		"form_id", formID,
		"track_location", trackLocation,
		"track_changes", trackChanges,
	)
	return sess, nil
}

// Record captures one user action. Any open interval event ends at the new
// event's start and is persisted. Interval kinds become the session's open
// event; instantaneous logged kinds are persisted immediately. Unlogged kinds
// still close the open event but never reach the store.
func (s *Service) Record(ctx context.Context, sessionID uuid.UUID, kind models.Kind, nodePath string, timestamp int64, oldValue string) error {
	sess, err := s.openSession(ctx, sessionID)
	if err != nil {
		return err
	}

	if err := s.closeOpenEvent(ctx, sess, timestamp); err != nil {
		return err
	}

	var position models.Position
	if nodePath != "" {
		position = models.PathRef(nodePath)
	}
	ev := models.NewTracked(timestamp, kind, sess.TrackLocation, sess.TrackChanges, position, oldValue)
	if sess.TrackLocation && sess.HasLocation() {
		ev.SetLocation(sess.Latitude, sess.Longitude, sess.Accuracy)
	}

	if ev.IsInterval() {
		snap := ev.Snapshot()
		sess.Open = &snap
	} else if err := s.persist(ctx, sess.ID, ev); err != nil {
		return err
	}

	return s.touch(ctx, sess)
}

// RecordAnswer applies a value change to the session's open question event.
func (s *Service) RecordAnswer(ctx context.Context, sessionID uuid.UUID, newValue string) error {
	sess, err := s.openSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.Open == nil {
		return dErrors.New(dErrors.CodeInvalidState, "no open event to record an answer against")
	}

	ev := models.FromSnapshot(*sess.Open)
	ev.RecordValueChange(newValue)
	snap := ev.Snapshot()
	sess.Open = &snap

	return s.touch(ctx, sess)
}

// SetLocation updates the session's last-known location. The open event picks
// it up only if it has no location yet; events never lose the coordinates
// they were created with.
func (s *Service) SetLocation(ctx context.Context, sessionID uuid.UUID, latitude, longitude, accuracy string) error {
	if latitude == "" || longitude == "" || accuracy == "" {
		return dErrors.New(dErrors.CodeBadRequest, "latitude, longitude and accuracy are all required")
	}

	sess, err := s.openSession(ctx, sessionID)
	if err != nil {
		return err
	}

	sess.Latitude = latitude
	sess.Longitude = longitude
	sess.Accuracy = accuracy

	if sess.TrackLocation && sess.Open != nil {
		ev := models.FromSnapshot(*sess.Open)
		if !ev.HasLocation() {
			ev.SetLocation(latitude, longitude, accuracy)
			snap := ev.Snapshot()
			sess.Open = &snap
		}
	}

	return s.touch(ctx, sess)
}

// End closes the session: the open event ends at the given timestamp, a
// form-exit event is recorded and further recording is rejected.
func (s *Service) End(ctx context.Context, sessionID uuid.UUID, timestamp int64) error {
	sess, err := s.openSession(ctx, sessionID)
	if err != nil {
		return err
	}

	if err := s.closeOpenEvent(ctx, sess, timestamp); err != nil {
		return err
	}

	exit := models.NewTracked(timestamp, models.KindFormExit, sess.TrackLocation, sess.TrackChanges, nil, "")
	if sess.TrackLocation && sess.HasLocation() {
		exit.SetLocation(sess.Latitude, sess.Longitude, sess.Accuracy)
	}
	if err := s.persist(ctx, sess.ID, exit); err != nil {
		return err
	}

	sess.Closed = true
	if err := s.touch(ctx, sess); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.IncrementSessionsClosed()
	}
	s.logger.InfoContext(ctx, "audit session closed", "session_id", sess.ID.String())
	return nil
}

// List returns the stored events of a session for inspection.
func (s *Service) List(ctx context.Context, sessionID uuid.UUID) ([]models.Snapshot, error) {
	if _, err := s.findSession(ctx, sessionID); err != nil {
		return nil, err
	}
	snaps, err := s.events.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return snaps, nil
}

// Export renders the session's audit trail as CSV: a header matching the
// session's tracking flags, then one line per stored event.
func (s *Service) Export(ctx context.Context, sessionID uuid.UUID) ([]byte, error) {
	sess, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	snaps, err := s.events.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	var b strings.Builder
	b.WriteString(exportHeader(sess.TrackLocation, sess.TrackChanges))
	b.WriteByte('\n')
	for _, snap := range snaps {
		b.WriteString(models.FromSnapshot(snap).String())
		b.WriteByte('\n')
	}

	if s.metrics != nil {
		s.metrics.IncrementExportsServed()
	}
	return []byte(b.String()), nil
}

// ReapIdle closes open sessions not touched for idleFor. The open event ends
// at sweep time. Returns the number of sessions closed.
func (s *Service) ReapIdle(ctx context.Context, idleFor time.Duration) (int, error) {
	now := s.now()
	ids, err := s.sessions.ListIdle(ctx, now.Add(-idleFor))
	if err != nil {
		return 0, fmt.Errorf("list idle sessions: %w", err)
	}

	reaped := 0
	for _, id := range ids {
		sess, err := s.sessions.Find(ctx, id)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return reaped, fmt.Errorf("find idle session: %w", err)
		}
		if sess.Closed {
			continue
		}

		if err := s.closeOpenEvent(ctx, sess, now.UnixMilli()); err != nil {
			return reaped, err
		}
		sess.Closed = true
		if err := s.touch(ctx, sess); err != nil {
			return reaped, err
		}

		if s.metrics != nil {
			s.metrics.IncrementSessionsReaped()
		}
		s.logger.InfoContext(ctx, "idle audit session reaped", "session_id", sess.ID.String())
		reaped++
	}
	return reaped, nil
}

func exportHeader(trackLocation, trackChanges bool) string {
	header := "event,node,start,end"
	if trackLocation {
		header += ",latitude,longitude,accuracy"
	}
	if trackChanges {
		header += ",old-value,new-value"
	}
	return header
}

// closeOpenEvent ends and persists the session's open interval event, if any.
func (s *Service) closeOpenEvent(ctx context.Context, sess *models.Session, end int64) error {
	if sess.Open == nil {
		return nil
	}
	ev := models.FromSnapshot(*sess.Open)
	ev.SetEnd(end)
	if err := s.persist(ctx, sess.ID, ev); err != nil {
		return err
	}
	sess.Open = nil
	return nil
}

// persist appends a logged event to the store; unlogged kinds are dropped.
func (s *Service) persist(ctx context.Context, sessionID uuid.UUID, ev *models.Event) error {
	if !ev.Kind().Logged() {
		return nil
	}
	if err := s.events.Append(ctx, sessionID, ev.Snapshot()); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	if s.metrics != nil {
		s.metrics.IncrementEventsRecorded(string(ev.Kind()))
	}
	return nil
}

func (s *Service) touch(ctx context.Context, sess *models.Session) error {
	sess.TouchedAt = s.now()
	if err := s.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// findSession loads a session regardless of closed state.
func (s *Service) findSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	sess, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return sess, nil
}

// openSession loads a session and rejects recording against closed ones.
func (s *Service) openSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	sess, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Closed {
		return nil, dErrors.New(dErrors.CodeInvalidState, "session is closed")
	}
	return sess, nil
}
