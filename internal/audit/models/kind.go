package models

// Kind classifies audit events recorded while a form is filled in. The string
// value doubles as the display label written to the exported CSV.
type Kind string

const (
	KindBeginningOfForm Kind = "beginning of form"
	KindQuestion        Kind = "question"
	KindGroup           Kind = "group questions"
	KindPromptNewRepeat Kind = "add repeat"
	KindRepeat          Kind = "repeat"
	KindEndOfForm       Kind = "end screen"
	KindFormStart       Kind = "form start"
	KindFormExit        Kind = "form exit"
	KindFormResume      Kind = "form resume"
	KindFormSave        Kind = "form save"
	KindFormFinalize    Kind = "form finalize"
	KindHierarchy       Kind = "jump"
	KindSaveError       Kind = "save error"
	KindFinalizeError   Kind = "finalize error"
	KindConstraintError Kind = "constraint error"
	KindDeleteRepeat    Kind = "delete repeat"

	KindLocationServicesNotAvailable Kind = "location services not available"
	KindLocationPermissionsGranted   Kind = "location permissions granted"
	KindLocationPermissionsDenied    Kind = "location permissions not granted"
	KindLocationTrackingEnabled      Kind = "location tracking enabled"
	KindLocationTrackingDisabled     Kind = "location tracking disabled"
	KindLocationProvidersEnabled     Kind = "location providers enabled"
	KindLocationProvidersDisabled    Kind = "location providers disabled"

	// KindUnknown is the sentinel for controller events we cannot map.
	KindUnknown Kind = "unknown event type"
)

type kindMeta struct {
	logged          bool
	locationRelated bool
}

// kindMetadata maps each kind to its export behavior. Kinds absent from the
// map behave like ordinary logged, non-location events.
var kindMetadata = map[Kind]kindMeta{
	KindBeginningOfForm: {logged: false},
	KindRepeat:          {logged: false},

	KindLocationServicesNotAvailable: {logged: true, locationRelated: true},
	KindLocationPermissionsGranted:   {logged: true, locationRelated: true},
	KindLocationPermissionsDenied:    {logged: true, locationRelated: true},
	KindLocationTrackingEnabled:      {logged: true, locationRelated: true},
	KindLocationTrackingDisabled:     {logged: true, locationRelated: true},
	KindLocationProvidersEnabled:     {logged: true, locationRelated: true},
	KindLocationProvidersDisabled:    {logged: true, locationRelated: true},
}

// Logged reports whether events of this kind appear in exported audit output.
func (k Kind) Logged() bool {
	if meta, ok := kindMetadata[k]; ok {
		return meta.logged
	}
	return true
}

// LocationRelated reports whether this kind describes a change in location
// tracking state rather than form navigation.
func (k Kind) LocationRelated() bool {
	if meta, ok := kindMetadata[k]; ok {
		return meta.locationRelated
	}
	return false
}

// Interval reports whether events of this kind cover a span of time and need
// an end marker before they are exported.
func (k Kind) Interval() bool {
	switch k {
	case KindHierarchy, KindQuestion, KindGroup, KindEndOfForm, KindPromptNewRepeat:
		return true
	}
	return false
}

// Form-engine controller event codes pushed by clients alongside raw events.
const (
	ControllerEventBeginningOfForm = 0
	ControllerEventEndOfForm       = 1
	ControllerEventPromptNewRepeat = 2
	ControllerEventQuestion        = 4
	ControllerEventGroup           = 8
	ControllerEventRepeat          = 16
)

// controllerEventKinds is the fixed translation table from form-engine event
// codes to audit kinds.
var controllerEventKinds = map[int]Kind{
	ControllerEventBeginningOfForm: KindBeginningOfForm,
	ControllerEventGroup:           KindGroup,
	ControllerEventRepeat:          KindRepeat,
	ControllerEventPromptNewRepeat: KindPromptNewRepeat,
	ControllerEventEndOfForm:       KindEndOfForm,
}

// allKinds lists every label the ingest API accepts.
var allKinds = []Kind{
	KindBeginningOfForm, KindQuestion, KindGroup, KindPromptNewRepeat,
	KindRepeat, KindEndOfForm, KindFormStart, KindFormExit, KindFormResume,
	KindFormSave, KindFormFinalize, KindHierarchy, KindSaveError,
	KindFinalizeError, KindConstraintError, KindDeleteRepeat,
	KindLocationServicesNotAvailable, KindLocationPermissionsGranted,
	KindLocationPermissionsDenied, KindLocationTrackingEnabled,
	KindLocationTrackingDisabled, KindLocationProvidersEnabled,
	KindLocationProvidersDisabled, KindUnknown,
}

var kindsByLabel = func() map[string]Kind {
	byLabel := make(map[string]Kind, len(allKinds))
	for _, kind := range allKinds {
		byLabel[string(kind)] = kind
	}
	return byLabel
}()

// ParseKind resolves a display label back to its Kind.
func ParseKind(label string) (Kind, bool) {
	kind, ok := kindsByLabel[label]
	return kind, ok
}

// KindFromControllerEvent translates a form-engine event code into a Kind.
// Unmapped codes degrade to KindUnknown rather than failing.
func KindFromControllerEvent(code int) Kind {
	if kind, ok := controllerEventKinds[code]; ok {
		return kind
	}
	return KindUnknown
}
