package models

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type KindSuite struct {
	suite.Suite
}

func TestKindSuite(t *testing.T) {
	suite.Run(t, new(KindSuite))
}

func (s *KindSuite) TestLogged() {
	s.Run("beginning of form and repeat are excluded from export", func() {
		s.False(KindBeginningOfForm.Logged())
		s.False(KindRepeat.Logged())
	})

	s.Run("everything else is logged", func() {
		for _, kind := range []Kind{
			KindQuestion, KindGroup, KindPromptNewRepeat, KindEndOfForm,
			KindFormStart, KindFormExit, KindFormResume, KindFormSave,
			KindFormFinalize, KindHierarchy, KindSaveError, KindFinalizeError,
			KindConstraintError, KindDeleteRepeat, KindLocationTrackingEnabled,
			KindUnknown,
		} {
			s.True(kind.Logged(), "kind %q should be logged", kind)
		}
	})
}

func (s *KindSuite) TestLocationRelated() {
	related := []Kind{
		KindLocationServicesNotAvailable,
		KindLocationPermissionsGranted,
		KindLocationPermissionsDenied,
		KindLocationTrackingEnabled,
		KindLocationTrackingDisabled,
		KindLocationProvidersEnabled,
		KindLocationProvidersDisabled,
	}
	for _, kind := range related {
		s.True(kind.LocationRelated(), "kind %q should be location related", kind)
	}

	s.False(KindQuestion.LocationRelated())
	s.False(KindFormStart.LocationRelated())
}

func (s *KindSuite) TestKindFromControllerEvent() {
	s.Equal(KindBeginningOfForm, KindFromControllerEvent(ControllerEventBeginningOfForm))
	s.Equal(KindEndOfForm, KindFromControllerEvent(ControllerEventEndOfForm))
	s.Equal(KindPromptNewRepeat, KindFromControllerEvent(ControllerEventPromptNewRepeat))
	s.Equal(KindGroup, KindFromControllerEvent(ControllerEventGroup))
	s.Equal(KindRepeat, KindFromControllerEvent(ControllerEventRepeat))

	s.Run("unmapped codes degrade to the unknown sentinel", func() {
		s.Equal(KindUnknown, KindFromControllerEvent(ControllerEventQuestion))
		s.Equal(KindUnknown, KindFromControllerEvent(-1))
		s.Equal(KindUnknown, KindFromControllerEvent(99))
	})
}
