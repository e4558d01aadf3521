package geom

import (
	"math"
	"testing"
)

func TestClosestOnSegment(t *testing.T) {
	a := Point2D{X: 0, Y: 0}
	b := Point2D{X: 10, Y: 0}

	tests := []struct {
		name  string
		p     Point2D
		want  Point2D
		wantT float64
	}{
		{"interior projection", Point2D{X: 4, Y: 3}, Point2D{X: 4, Y: 0}, 0.4},
		{"clamped before start", Point2D{X: -5, Y: 2}, a, 0},
		{"clamped past end", Point2D{X: 15, Y: -2}, b, 1},
		{"on the segment", Point2D{X: 7, Y: 0}, Point2D{X: 7, Y: 0}, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, gotT := ClosestOnSegment(tt.p, a, b)
			if !EqualPoints(got, tt.want, Eps) {
				t.Errorf("point = %v, want %v", got, tt.want)
			}
			if math.Abs(gotT-tt.wantT) > Eps {
				t.Errorf("t = %f, want %f", gotT, tt.wantT)
			}
		})
	}
}

func TestClosestOnSegmentDegenerate(t *testing.T) {
	a := Point2D{X: 3, Y: 3}
	got, gotT := ClosestOnSegment(Point2D{X: 9, Y: 9}, a, a)
	if !EqualPoints(got, a, Eps) || gotT != 0 {
		t.Errorf("degenerate segment: got %v t=%f, want %v t=0", got, gotT, a)
	}
}

func TestSegmentIntersection(t *testing.T) {
	t.Run("proper crossing", func(t *testing.T) {
		pt, ta, tb, ok := SegmentIntersection(
			Point2D{X: -1, Y: 0}, Point2D{X: 1, Y: 0},
			Point2D{X: 0, Y: -1}, Point2D{X: 0, Y: 1},
		)
		if !ok {
			t.Fatal("crossing segments reported no intersection")
		}
		if !EqualPoints(pt, Point2D{}, Eps) {
			t.Errorf("intersection = %v, want origin", pt)
		}
		if math.Abs(ta-0.5) > Eps || math.Abs(tb-0.5) > Eps {
			t.Errorf("parameters = %f, %f, want 0.5, 0.5", ta, tb)
		}
	})

	t.Run("parallel", func(t *testing.T) {
		_, _, _, ok := SegmentIntersection(
			Point2D{X: 0, Y: 0}, Point2D{X: 10, Y: 0},
			Point2D{X: 0, Y: 1}, Point2D{X: 10, Y: 1},
		)
		if ok {
			t.Error("parallel segments reported an intersection")
		}
	})

	t.Run("collinear", func(t *testing.T) {
		_, _, _, ok := SegmentIntersection(
			Point2D{X: 0, Y: 0}, Point2D{X: 10, Y: 0},
			Point2D{X: 5, Y: 0}, Point2D{X: 15, Y: 0},
		)
		if ok {
			t.Error("collinear segments reported an intersection")
		}
	})

	t.Run("lines cross off-segment", func(t *testing.T) {
		_, _, _, ok := SegmentIntersection(
			Point2D{X: 0, Y: 0}, Point2D{X: 1, Y: 0},
			Point2D{X: 5, Y: -1}, Point2D{X: 5, Y: 1},
		)
		if ok {
			t.Error("off-segment crossing reported an intersection")
		}
	})

	t.Run("endpoint touch counts", func(t *testing.T) {
		_, ta, _, ok := SegmentIntersection(
			Point2D{X: 0, Y: 0}, Point2D{X: 10, Y: 0},
			Point2D{X: 10, Y: -5}, Point2D{X: 10, Y: 5},
		)
		if !ok {
			t.Fatal("endpoint touch reported no intersection")
		}
		if math.Abs(ta-1) > Eps {
			t.Errorf("ta = %f, want 1", ta)
		}
	})
}

func TestTurnAngle(t *testing.T) {
	tests := []struct {
		name            string
		prev, at, next  Point2D
		wantDeg         float64
	}{
		{"straight", Point2D{0, 0}, Point2D{1, 0}, Point2D{2, 0}, 0},
		{"right angle", Point2D{0, 0}, Point2D{1, 0}, Point2D{1, 1}, 90},
		{"hairpin", Point2D{0, 0}, Point2D{1, 0}, Point2D{0, 0}, 180},
		{"shallow", Point2D{0, 0}, Point2D{1, 0}, Point2D{2, 1}, 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Degrees(TurnAngle(tt.prev, tt.at, tt.next))
			if math.Abs(got-tt.wantDeg) > 1e-9 {
				t.Errorf("TurnAngle = %f deg, want %f", got, tt.wantDeg)
			}
		})
	}
}

func TestIncludedAngle(t *testing.T) {
	p := Point2D{}
	got := Degrees(IncludedAngle(p, Point2D{X: 1, Y: 0}, Point2D{X: 0, Y: 1}))
	if math.Abs(got-90) > 1e-9 {
		t.Errorf("IncludedAngle = %f deg, want 90", got)
	}
	got = Degrees(IncludedAngle(p, Point2D{X: 1, Y: 0}, Point2D{X: 1, Y: 0}))
	if math.Abs(got) > 1e-9 {
		t.Errorf("IncludedAngle of equal rays = %f deg, want 0", got)
	}
}

func TestPointOps(t *testing.T) {
	a := Point2D{X: 3, Y: 4}
	if got := a.Norm(); math.Abs(got-5) > Eps {
		t.Errorf("Norm = %f, want 5", got)
	}
	if got := a.Unit().Norm(); math.Abs(got-1) > Eps {
		t.Errorf("Unit().Norm() = %f, want 1", got)
	}
	if got := a.Dist(Point2D{X: 3, Y: 0}); math.Abs(got-4) > Eps {
		t.Errorf("Dist = %f, want 4", got)
	}
	mid := a.Lerp(Point2D{X: 5, Y: 0}, 0.5)
	if !EqualPoints(mid, Point2D{X: 4, Y: 2}, Eps) {
		t.Errorf("Lerp midpoint = %v, want (4, 2)", mid)
	}
	if got := a.Cross(Point2D{X: 1, Y: 0}); math.Abs(got+4) > Eps {
		t.Errorf("Cross = %f, want -4", got)
	}
}
