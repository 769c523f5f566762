package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type EventSuite struct {
	suite.Suite
}

func TestEventSuite(t *testing.T) {
	suite.Run(t, new(EventSuite))
}

func (s *EventSuite) TestIntervalKinds() {
	interval := []Kind{KindQuestion, KindGroup, KindHierarchy, KindEndOfForm, KindPromptNewRepeat}
	for _, kind := range interval {
		s.True(New(1, kind).IsInterval(), "kind %q should be an interval", kind)
	}

	instant := []Kind{
		KindBeginningOfForm, KindRepeat, KindFormStart, KindFormExit, KindFormResume,
		KindFormSave, KindFormFinalize, KindSaveError, KindFinalizeError,
		KindConstraintError, KindDeleteRepeat, KindLocationTrackingEnabled, KindUnknown,
	}
	for _, kind := range instant {
		s.False(New(1, kind).IsInterval(), "kind %q should be instantaneous", kind)
	}
}

func (s *EventSuite) TestEndField() {
	s.Run("unset end renders empty, not zero", func() {
		ev := New(100, KindQuestion)
		s.Equal("question,,100,", ev.String())
	})

	s.Run("set end renders the timestamp", func() {
		ev := New(100, KindQuestion)
		ev.SetEnd(100)
		s.True(ev.EndSet())
		s.Equal("question,,100,100", ev.String())
	})
}

func (s *EventSuite) TestRecordValueChange() {
	s.Run("no new answer until a differing value arrives", func() {
		ev := NewTracked(1, KindQuestion, false, true, nil, "")
		s.False(ev.HasNewAnswer())

		ev.RecordValueChange("yes")
		s.True(ev.HasNewAnswer())
	})

	s.Run("equal values clear both sides", func() {
		ev := NewTracked(1, KindQuestion, false, true, nil, "same")
		ev.RecordValueChange("same")
		s.False(ev.HasNewAnswer())
		s.Equal("question,,1,,,", ev.String())
	})

	s.Run("repeated calls never double-escape", func() {
		ev := NewTracked(1, KindQuestion, false, true, nil, "")
		ev.RecordValueChange("a,b")
		ev.RecordValueChange("a,b")
		s.Equal(`question,,1,,,"a,b"`, ev.String())
	})
}

func (s *EventSuite) TestCSVEscaping() {
	s.Run("comma in value is quoted", func() {
		ev := NewTracked(1, KindQuestion, false, true, nil, "")
		ev.RecordValueChange("a,b")
		s.True(strings.HasSuffix(ev.String(), `,"a,b"`))
	})

	s.Run("inner quotes are doubled", func() {
		ev := NewTracked(1, KindQuestion, false, true, nil, `he said "hi",twice`)
		ev.RecordValueChange("ok")
		s.Equal(`question,,1,,"he said ""hi"",twice",ok`, ev.String())
	})

	s.Run("newline in value is quoted", func() {
		ev := NewTracked(1, KindQuestion, false, true, nil, "")
		ev.RecordValueChange("line1\nline2")
		s.Equal("question,,1,,,\"line1\nline2\"", ev.String())
	})

	s.Run("plain values pass through", func() {
		ev := NewTracked(1, KindQuestion, false, true, nil, "old")
		ev.RecordValueChange("new")
		s.Equal("question,,1,,old,new", ev.String())
	})
}

func (s *EventSuite) TestNodePathStripping() {
	s.Run("question strips trailing repeat index", func() {
		ev := NewTracked(1, KindQuestion, false, false, PathRef("/data/repeat[2]/q"), "")
		s.Equal("question,/data/repeat/q,1,", ev.String())
	})

	s.Run("group strips trailing repeat index", func() {
		ev := NewTracked(1, KindGroup, false, false, PathRef("/data/repeat[3]"), "")
		s.Equal("group questions,/data/repeat,1,", ev.String())
	})

	s.Run("other kinds keep the full path", func() {
		ev := NewTracked(1, KindHierarchy, false, false, PathRef("/data/repeat[2]/q"), "")
		s.Equal("jump,/data/repeat[2]/q,1,", ev.String())
	})

	s.Run("leading bracket is not stripped", func() {
		ev := NewTracked(1, KindQuestion, false, false, PathRef("[2]"), "")
		s.Equal("question,[2],1,", ev.String())
	})

	s.Run("nil position renders empty node", func() {
		s.Equal("question,,1,", New(1, KindQuestion).String())
	})
}

func (s *EventSuite) TestSerializationMatrix() {
	pos := PathRef("/data/q1")

	s.Run("neither flag yields four fields", func() {
		ev := NewTracked(10, KindFormStart, false, false, pos, "")
		s.Len(strings.Split(ev.String(), ","), 4)
	})

	s.Run("location only appends the coordinate triple", func() {
		ev := NewTracked(10, KindFormStart, true, false, pos, "")
		ev.SetLocation("54.3", "18.6", "5")
		s.Equal("form start,/data/q1,10,,54.3,18.6,5", ev.String())
	})

	s.Run("changes only appends old and new values", func() {
		ev := NewTracked(10, KindQuestion, false, true, pos, "old")
		ev.RecordValueChange("new")
		s.Equal("question,/data/q1,10,,old,new", ev.String())
	})

	s.Run("both flags append location then values", func() {
		ev := NewTracked(10, KindQuestion, true, true, pos, "old")
		ev.SetLocation("54.3", "18.6", "5")
		ev.RecordValueChange("new")
		ev.SetEnd(20)
		s.Equal("question,/data/q1,10,20,54.3,18.6,5,old,new", ev.String())
	})
}

func (s *EventSuite) TestLocation() {
	ev := New(1, KindQuestion)
	s.False(ev.HasLocation())

	ev.SetLocation("54.3", "", "5")
	s.False(ev.HasLocation(), "partial triple does not count as set")

	ev.SetLocation("54.3", "18.6", "5")
	s.True(ev.HasLocation())
}

func (s *EventSuite) TestSnapshotRoundTrip() {
	ev := NewTracked(10, KindQuestion, true, true, PathRef("/data/repeat[2]/q"), "old")
	ev.SetLocation("54.3", "18.6", "5")
	ev.RecordValueChange("new")
	ev.SetEnd(20)

	restored := FromSnapshot(ev.Snapshot())
	s.Equal(ev.String(), restored.String())
	s.Equal(ev.HasNewAnswer(), restored.HasNewAnswer())
	s.Equal(ev.EndSet(), restored.EndSet())
}
