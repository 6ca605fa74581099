package detector

// NewDetection builds a single-hand detection whose palm base sits at (x, y).
func NewDetection(hand Handedness, gesture string, score, x, y float64) Detection {
	lm := OpenPalmLandmarks()
	dx := x - lm[Wrist].X
	dy := y - lm[Wrist].Y
	for i := range lm {
		lm[i].X += dx
		lm[i].Y += dy
	}

	d := Detection{
		Handedness: hand,
		Hands:      []Landmarks{lm},
	}
	if gesture != "" {
		d.Gestures = []Category{{Name: gesture, Score: score}}
	}
	return d
}

// OpenPalmLandmarks returns a right hand with every finger extended upward.
func OpenPalmLandmarks() Landmarks {
	lm := make(Landmarks, NumLandmarks)

	lm[Wrist] = Point{X: 0.5, Y: 0.8}

	lm[ThumbCMC] = Point{X: 0.55, Y: 0.75, Z: 0.02}
	lm[ThumbMCP] = Point{X: 0.62, Y: 0.70, Z: 0.03}
	lm[ThumbIP] = Point{X: 0.68, Y: 0.65, Z: 0.03}
	lm[ThumbTip] = Point{X: 0.73, Y: 0.60, Z: 0.03}

	lm[IndexMCP] = Point{X: 0.55, Y: 0.68}
	lm[IndexPIP] = Point{X: 0.57, Y: 0.55}
	lm[IndexDIP] = Point{X: 0.58, Y: 0.45}
	lm[IndexTip] = Point{X: 0.58, Y: 0.35}

	lm[MiddleMCP] = Point{X: 0.50, Y: 0.66}
	lm[MiddlePIP] = Point{X: 0.50, Y: 0.52}
	lm[MiddleDIP] = Point{X: 0.50, Y: 0.40}
	lm[MiddleTip] = Point{X: 0.50, Y: 0.28}

	lm[RingMCP] = Point{X: 0.45, Y: 0.68}
	lm[RingPIP] = Point{X: 0.43, Y: 0.55}
	lm[RingDIP] = Point{X: 0.42, Y: 0.45}
	lm[RingTip] = Point{X: 0.42, Y: 0.35}

	lm[PinkyMCP] = Point{X: 0.40, Y: 0.70}
	lm[PinkyPIP] = Point{X: 0.37, Y: 0.60}
	lm[PinkyDIP] = Point{X: 0.35, Y: 0.50}
	lm[PinkyTip] = Point{X: 0.34, Y: 0.42}

	return lm
}

// ClosedFistLandmarks returns a right hand with every finger curled into the palm.
func ClosedFistLandmarks() Landmarks {
	lm := make(Landmarks, NumLandmarks)

	lm[Wrist] = Point{X: 0.5, Y: 0.8}

	lm[ThumbCMC] = Point{X: 0.55, Y: 0.75}
	lm[ThumbMCP] = Point{X: 0.58, Y: 0.70}
	lm[ThumbIP] = Point{X: 0.56, Y: 0.66, Z: -0.03}
	lm[ThumbTip] = Point{X: 0.53, Y: 0.66, Z: -0.04}

	lm[IndexMCP] = Point{X: 0.55, Y: 0.70, Z: -0.02}
	lm[IndexPIP] = Point{X: 0.55, Y: 0.68, Z: -0.05}
	lm[IndexDIP] = Point{X: 0.52, Y: 0.70, Z: -0.04}
	lm[IndexTip] = Point{X: 0.50, Y: 0.72, Z: -0.02}

	lm[MiddleMCP] = Point{X: 0.50, Y: 0.68, Z: -0.02}
	lm[MiddlePIP] = Point{X: 0.50, Y: 0.66, Z: -0.05}
	lm[MiddleDIP] = Point{X: 0.47, Y: 0.68, Z: -0.04}
	lm[MiddleTip] = Point{X: 0.45, Y: 0.70, Z: -0.02}

	lm[RingMCP] = Point{X: 0.45, Y: 0.70, Z: -0.02}
	lm[RingPIP] = Point{X: 0.45, Y: 0.68, Z: -0.05}
	lm[RingDIP] = Point{X: 0.42, Y: 0.70, Z: -0.04}
	lm[RingTip] = Point{X: 0.40, Y: 0.72, Z: -0.02}

	lm[PinkyMCP] = Point{X: 0.40, Y: 0.72, Z: -0.02}
	lm[PinkyPIP] = Point{X: 0.40, Y: 0.70, Z: -0.05}
	lm[PinkyDIP] = Point{X: 0.37, Y: 0.72, Z: -0.04}
	lm[PinkyTip] = Point{X: 0.35, Y: 0.74, Z: -0.02}

	return lm
}
