package models

import (
	"strconv"
	"strings"
)

// Position is the narrow read-only view of the form-engine position an event
// concerns. Keeping it to a path string avoids coupling the event model to
// form-engine internals.
type Position interface {
	Path() string
}

// PathRef adapts a plain node path into a Position.
type PathRef string

func (p PathRef) Path() string { return string(p) }

// Event is one recorded user action on a form. It is created when the action
// begins, mutated at most once to set an end time and/or record an answer
// change, and serialized to a CSV line on export.
//
// Answer values are stored raw; CSV escaping happens exactly once, at
// serialization time.
type Event struct {
	kind     Kind
	start    int64
	end      int64
	endSet   bool
	position Position

	latitude  string
	longitude string
	accuracy  string

	oldValue string
	newValue string

	trackLocation bool
	trackChanges  bool
}

// New creates an event with both tracking features disabled.
func New(start int64, kind Kind) *Event {
	return NewTracked(start, kind, false, false, nil, "")
}

// NewTracked creates an event carrying the session's tracking flags, the form
// position it concerns and the answer value before the action.
func NewTracked(start int64, kind Kind, trackLocation, trackChanges bool, position Position, oldValue string) *Event {
	return &Event{
		kind:          kind,
		start:         start,
		position:      position,
		oldValue:      oldValue,
		trackLocation: trackLocation,
		trackChanges:  trackChanges,
	}
}

func (e *Event) Kind() Kind   { return e.kind }
func (e *Event) Start() int64 { return e.start }

// IsInterval reports whether this event covers a span of time and needs an
// end marker before export.
func (e *Event) IsInterval() bool { return e.kind.Interval() }

// SetEnd marks the end of an interval event. Until it is called the end field
// serializes as empty, never as zero.
func (e *Event) SetEnd(end int64) {
	e.end = end
	e.endSet = true
}

func (e *Event) EndSet() bool { return e.endSet }

// HasLocation reports whether all three coordinate fields are present.
func (e *Event) HasLocation() bool {
	return e.latitude != "" && e.longitude != "" && e.accuracy != ""
}

// SetLocation overwrites all three coordinate fields together.
func (e *Event) SetLocation(latitude, longitude, accuracy string) {
	e.latitude = latitude
	e.longitude = longitude
	e.accuracy = accuracy
}

// RecordValueChange stores the answer value after the action. When the new
// value equals the stored old value no real change occurred and both are
// cleared.
func (e *Event) RecordValueChange(newValue string) {
	e.newValue = newValue
	if e.oldValue == e.newValue {
		e.oldValue = ""
		e.newValue = ""
	}
}

// HasNewAnswer reports whether the event carries a real answer change.
func (e *Event) HasNewAnswer() bool {
	return e.oldValue != e.newValue
}

// String renders the event as one comma-separated record. The field set
// depends on which tracking features the session had enabled.
func (e *Event) String() string {
	fields := []string{string(e.kind), e.node(), strconv.FormatInt(e.start, 10), e.endField()}

	if e.trackLocation {
		fields = append(fields, e.latitude, e.longitude, e.accuracy)
	}
	if e.trackChanges {
		fields = append(fields, escapeCSV(e.oldValue), escapeCSV(e.newValue))
	}

	return strings.Join(fields, ",")
}

// node derives the exported node path. Question and group events strip the
// trailing bracketed index so repeated instances collapse to their template
// path.
func (e *Event) node() string {
	if e.position == nil {
		return ""
	}
	node := e.position.Path()
	if e.kind == KindQuestion || e.kind == KindGroup {
		if idx := strings.LastIndex(node, "["); idx > 0 {
			node = node[:idx]
		}
	}
	return node
}

func (e *Event) endField() string {
	if !e.endSet {
		return ""
	}
	return strconv.FormatInt(e.end, 10)
}

// escapeCSV quotes a field that contains a comma or newline, doubling any
// inner quotes per RFC 4180. Other fields pass through untouched.
func escapeCSV(value string) string {
	if !strings.ContainsAny(value, ",\n") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// Snapshot is the exported mirror of Event used by stores and the inspection
// API. Values stay raw; only String applies CSV escaping.
type Snapshot struct {
	Kind          Kind   `json:"kind"`
	Start         int64  `json:"start"`
	End           int64  `json:"end,omitempty"`
	EndSet        bool   `json:"end_set,omitempty"`
	NodePath      string `json:"node_path,omitempty"`
	Latitude      string `json:"latitude,omitempty"`
	Longitude     string `json:"longitude,omitempty"`
	Accuracy      string `json:"accuracy,omitempty"`
	OldValue      string `json:"old_value,omitempty"`
	NewValue      string `json:"new_value,omitempty"`
	TrackLocation bool   `json:"track_location,omitempty"`
	TrackChanges  bool   `json:"track_changes,omitempty"`
}

// Snapshot captures the event state for persistence.
func (e *Event) Snapshot() Snapshot {
	nodePath := ""
	if e.position != nil {
		nodePath = e.position.Path()
	}
	return Snapshot{
		Kind:          e.kind,
		Start:         e.start,
		End:           e.end,
		EndSet:        e.endSet,
		NodePath:      nodePath,
		Latitude:      e.latitude,
		Longitude:     e.longitude,
		Accuracy:      e.accuracy,
		OldValue:      e.oldValue,
		NewValue:      e.newValue,
		TrackLocation: e.trackLocation,
		TrackChanges:  e.trackChanges,
	}
}

// FromSnapshot rebuilds an event from its persisted state.
func FromSnapshot(s Snapshot) *Event {
	e := &Event{
		kind:          s.Kind,
		start:         s.Start,
		end:           s.End,
		endSet:        s.EndSet,
		latitude:      s.Latitude,
		longitude:     s.Longitude,
		accuracy:      s.Accuracy,
		oldValue:      s.OldValue,
		newValue:      s.NewValue,
		trackLocation: s.TrackLocation,
		trackChanges:  s.TrackChanges,
	}
	if s.NodePath != "" {
		e.position = PathRef(s.NodePath)
	}
	return e
}
