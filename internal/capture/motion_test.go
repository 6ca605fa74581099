package capture

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestNewMotionDetector(t *testing.T) {
	for _, threshold := range []float64{0.5, 1.0, 5.0} {
		md := NewMotionDetector(threshold)
		if md.Threshold() != threshold {
			t.Errorf("threshold = %f, want %f", md.Threshold(), threshold)
		}
		if md.initialized {
			t.Error("motion detector should not be initialized initially")
		}
		md.Close()
	}
}

func TestMotionDetector_Detect(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()
	black2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black2.Close()
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	t.Run("identical frames", func(t *testing.T) {
		md := NewMotionDetector(1.0)
		defer md.Close()

		if detected, pct := md.Detect(&black); detected || pct != 0 {
			t.Errorf("first frame = %v, %f, want baseline only", detected, pct)
		}
		if detected, pct := md.Detect(&black2); detected {
			t.Errorf("identical frames should not detect motion, changePercent = %f", pct)
		}
	})

	t.Run("black to white", func(t *testing.T) {
		md := NewMotionDetector(1.0)
		defer md.Close()

		md.Detect(&black)
		detected, pct := md.Detect(&white)
		if !detected || pct < 50.0 {
			t.Errorf("black to white = %v, %f, want motion above 50%%", detected, pct)
		}
	})

	t.Run("reset restarts baseline", func(t *testing.T) {
		md := NewMotionDetector(1.0)
		defer md.Close()

		md.Detect(&black)
		md.Reset()
		if detected, _ := md.Detect(&white); detected {
			t.Error("first frame after Reset should not detect motion")
		}
	})

	t.Run("size change restarts baseline", func(t *testing.T) {
		small := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
		defer small.Close()

		md := NewMotionDetector(1.0)
		defer md.Close()

		md.Detect(&black)
		if detected, _ := md.Detect(&small); detected {
			t.Error("frame of a new size should only set the baseline")
		}
	})
}

func TestMotionDetector_SetThreshold(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	md.SetThreshold(5.0)
	if md.Threshold() != 5.0 {
		t.Errorf("threshold = %f, want 5.0 after SetThreshold", md.Threshold())
	}

	md.SetThreshold(-1.0)
	if md.Threshold() != 5.0 {
		t.Errorf("negative threshold should be ignored, got %f", md.Threshold())
	}
}

func TestMotionDetector_Close_Multiple(t *testing.T) {
	md := NewMotionDetector(1.0)
	md.Close()
	md.Close()
}
