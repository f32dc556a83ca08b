package sid

import (
	"math"
	"testing"
)

// The interpolated op-amp transfer must be monotonically decreasing over
// the measured range; a spline overshooting between points would give the
// filter tables spurious gain inversions.
func TestSplineMonotonicity(t *testing.T) {
	s := newSpline(opampVoltage6581)

	old := math.MaxFloat64
	for x := 0.0; x < 12.0; x += 0.01 {
		y, _ := s.evaluate(x)
		if y > old {
			t.Fatalf("spline(%f) = %f > previous %f", x, y, old)
		}
		old = y
	}
}

func TestSplineInterpolatesPoints(t *testing.T) {
	s := newSpline(opampVoltage6581)

	for _, p := range opampVoltage6581 {
		y, _ := s.evaluate(p.x)
		if math.Abs(y-p.y) > 1e-9 {
			t.Errorf("spline(%f) = %f, want %f", p.x, y, p.y)
		}
	}
}

func TestSplineOutsideBounds(t *testing.T) {
	values := []splinePoint{
		{10, 15},
		{15, 20},
		{20, 30},
		{25, 40},
		{30, 45},
	}
	s := newSpline(values)

	y1, _ := s.evaluate(5)
	if math.Abs(y1-6.66667) > 1e-4 {
		t.Errorf("spline(5) = %f, want 6.66667", y1)
	}

	y2, _ := s.evaluate(40)
	if math.Abs(y2-75.0) > 1e-4 {
		t.Errorf("spline(40) = %f, want 75.0", y2)
	}
}
