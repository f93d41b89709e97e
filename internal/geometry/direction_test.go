package geometry

import "testing"

// Mirrors original_source/src/server/position_extensions.rs::relative_direction_works.
func TestRelativeDirection(t *testing.T) {
	p := Position{X: 0, Y: 0}
	e := Position{X: 1, Y: 0}
	w := Position{X: -2, Y: 0}
	n := Position{X: 0, Y: -200}
	s := Position{X: 0, Y: 232}

	check := func(from, to Position, want DirectionFlags) {
		t.Helper()
		if got := from.RelativeDirection(to); got != want {
			t.Errorf("%v.RelativeDirection(%v) = %v, want %v", from, to, got, want)
		}
	}

	check(p, e, East)
	check(p, w, West)
	check(p, n, North)
	check(p, s, South)

	check(w, n, North|East)
	check(e, n, North|West)
	check(w, s, South|East)
	check(e, s, South|West)

	check(n, w, South|West)
	check(s, w, North|West)
	check(n, e, South|East)
	check(s, e, North|East)
}

func TestToPositions(t *testing.T) {
	pos := Position{X: 10, Y: 10}
	got := (North | East).ToPositions(pos)
	want := []Position{{X: 10, Y: 9}, {X: 11, Y: 10}}
	if len(got) != len(want) {
		t.Fatalf("ToPositions returned %d positions, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d = %v, want %v", i, got[i], want[i])
		}
	}
}
