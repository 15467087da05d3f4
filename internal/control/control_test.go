package control

import (
	"errors"
	"testing"
)

func TestRecorderTransitions(t *testing.T) {
	tests := []struct {
		name   string
		kinds  []Kind
		want   []Action
		finish State
	}{
		{"toggle twice", []Kind{ToggleRecording, ToggleRecording}, []Action{Start, Finish}, Idle},
		{"start is idempotent", []Kind{StartRecording, StartRecording}, []Action{Start, None}, Active},
		{"stop while idle", []Kind{StopRecording}, []Action{None}, Idle},
		{"external start then key toggle", []Kind{StartRecording, ToggleRecording}, []Action{Start, Finish}, Idle},
		{"key toggle then external stop", []Kind{ToggleRecording, StopRecording, StopRecording}, []Action{Start, Finish, None}, Idle},
		{"other kinds ignored", []Kind{Calibrate, Stop, Replay}, []Action{None, None, None}, Idle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Recorder
			for i, k := range tt.kinds {
				if got := r.Handle(k); got != tt.want[i] {
					t.Errorf("step %d Handle(%s) = %v, want %v", i, k, got, tt.want[i])
				}
			}
			if r.State() != tt.finish {
				t.Errorf("final state = %s, want %s", r.State(), tt.finish)
			}
		})
	}
}

func TestRecorderRevert(t *testing.T) {
	var r Recorder
	a := r.Handle(ToggleRecording)
	r.Revert(a)
	if r.State() != Idle {
		t.Errorf("state after revert = %s, want idle", r.State())
	}
}

func TestQueueOrderAndOverflow(t *testing.T) {
	q := NewQueue(2)
	if !q.Post(Signal{Kind: Stop, Origin: Marker}) {
		t.Fatal("first Post failed")
	}
	if !q.Post(Signal{Kind: Calibrate, Origin: Key}) {
		t.Fatal("second Post failed")
	}
	if q.Post(Signal{Kind: Replay, Origin: Key}) {
		t.Error("Post on full queue should fail")
	}
	if q.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", q.Dropped())
	}

	got := q.Drain()
	if len(got) != 2 || got[0].Kind != Stop || got[1].Kind != Calibrate {
		t.Errorf("Drain() = %v, want [stop calibrate]", got)
	}
	if len(q.Drain()) != 0 {
		t.Error("second Drain() should be empty")
	}
}

func TestParseKind(t *testing.T) {
	for k := Stop; k <= Replay; k++ {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if _, ok := ParseKind("bogus"); ok {
		t.Error("ParseKind(bogus) should fail")
	}
}

type failingAnnouncer struct{ calls int }

func (f *failingAnnouncer) Announce(Kind) error {
	f.calls++
	return errors.New("boom")
}

func TestAnnouncersJoinsErrors(t *testing.T) {
	f := &failingAnnouncer{}
	as := Announcers{Nop{}, f, nil, f}
	if err := as.Announce(Stop); err == nil {
		t.Error("Announce() should report failures")
	}
	if f.calls != 2 {
		t.Errorf("failing announcer called %d times, want 2", f.calls)
	}
}
