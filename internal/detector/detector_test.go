package detector

import (
	"encoding/json"
	"math"
	"testing"
)

const epsilon = 1e-9

func TestParseHandedness(t *testing.T) {
	tests := []struct {
		in   string
		want Handedness
	}{
		{"Left", Left},
		{"left", Left},
		{" RIGHT ", Right},
		{"", Unknown},
		{"both", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseHandedness(tt.in); got != tt.want {
				t.Errorf("ParseHandedness(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestHandedness_UnmarshalJSON(t *testing.T) {
	var v struct {
		Hand Handedness `json:"hand"`
	}
	if err := json.Unmarshal([]byte(`{"hand":"Right"}`), &v); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if v.Hand != Right {
		t.Errorf("hand = %q, want right", v.Hand)
	}
}

func TestDetection_TopLabel(t *testing.T) {
	t.Run("ranked gestures", func(t *testing.T) {
		d := Detection{Gestures: []Category{{Name: "Pointing_Up", Score: 0.934}, {Name: "Victory", Score: 0.05}}}
		if got := d.TopLabel(); got != "Pointing_Up (0.93)" {
			t.Errorf("TopLabel() = %q", got)
		}
	})

	t.Run("no gestures", func(t *testing.T) {
		if got := (Detection{}).TopLabel(); got != "" {
			t.Errorf("TopLabel() = %q, want empty", got)
		}
	})
}

func TestDetection_PalmBase(t *testing.T) {
	t.Run("uses first hand", func(t *testing.T) {
		d := Detection{Hands: []Landmarks{
			{{X: 0.1, Y: 0.2}},
			{{X: 0.9, Y: 0.9}},
		}}
		p, ok := d.PalmBase()
		if !ok {
			t.Fatal("expected palm base")
		}
		if p.X != 0.1 || p.Y != 0.2 {
			t.Errorf("PalmBase() = %+v, want first hand", p)
		}
	})

	t.Run("no hands", func(t *testing.T) {
		if _, ok := (Detection{}).PalmBase(); ok {
			t.Error("expected no palm base")
		}
	})

	t.Run("hand without points", func(t *testing.T) {
		if _, ok := (Detection{Hands: []Landmarks{{}}}).PalmBase(); ok {
			t.Error("expected no palm base for empty landmark list")
		}
	})
}

func TestNewDetection_MovesPalmBase(t *testing.T) {
	d := NewDetection(Right, "Pointing_Up", 0.93, 0.25, 0.75)

	p, ok := d.PalmBase()
	if !ok {
		t.Fatal("expected palm base")
	}
	if math.Abs(p.X-0.25) > epsilon || math.Abs(p.Y-0.75) > epsilon {
		t.Errorf("palm base = %+v, want (0.25, 0.75)", p)
	}
	if len(d.Hands[0]) != NumLandmarks {
		t.Errorf("landmarks = %d, want %d", len(d.Hands[0]), NumLandmarks)
	}
}

func TestLandmarkFixtures(t *testing.T) {
	palm := OpenPalmLandmarks()
	fist := ClosedFistLandmarks()

	fingers := [][2]int{{IndexMCP, IndexTip}, {MiddleMCP, MiddleTip}, {RingMCP, RingTip}, {PinkyMCP, PinkyTip}}
	for _, f := range fingers {
		if ext := palm[f[0]].Y - palm[f[1]].Y; ext < 0.2 {
			t.Errorf("open palm finger %d not extended: %f", f[1], ext)
		}
		if ext := fist[f[0]].Y - fist[f[1]].Y; ext > 0.15 {
			t.Errorf("fist finger %d appears extended: %f", f[1], ext)
		}
	}
}
