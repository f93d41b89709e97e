// Package geometry holds the coordinate primitives shared by every other
// package: world positions, direction bitflags, and the saturating/ wrapping
// arithmetic the movement and AI code relies on.
package geometry

import "fmt"

// Position is a signed 16-bit world coordinate.
type Position struct {
	X, Y int16
}

// InLine reports whether p and other share an axis.
func (p Position) InLine(other Position) bool {
	return p.X == other.X || p.Y == other.Y
}

// AdjacentInclusive reports whether other is p itself or one of its four
// orthogonal neighbours.
func (p Position) AdjacentInclusive(other Position) bool {
	if p.X == other.X {
		lo, hi := wrapSub16(p.Y, 1), wrapAdd16(p.Y, 1)
		return lo <= other.Y && other.Y <= hi
	}
	if p.Y == other.Y {
		lo, hi := wrapSub16(p.X, 1), wrapAdd16(p.X, 1)
		return lo <= other.X && other.X <= hi
	}
	return false
}

// AdjacentExclusive reports whether other is exactly one orthogonal step
// away from p (not p itself).
func (p Position) AdjacentExclusive(other Position) bool {
	if p.X == other.X {
		return wrapSub16(p.Y, 1) == other.Y || other.Y == wrapAdd16(p.Y, 1)
	}
	if p.Y == other.Y {
		return wrapSub16(p.X, 1) == other.X || other.X == wrapAdd16(p.X, 1)
	}
	return false
}

// North returns p shifted north (decreasing Y) by amount, saturating at MinInt16.
func (p Position) North(amount int16) Position {
	return Position{X: p.X, Y: satSub16(p.Y, amount)}
}

// South returns p shifted south (increasing Y) by amount, saturating at MaxInt16.
func (p Position) South(amount int16) Position {
	return Position{X: p.X, Y: satAdd16(p.Y, amount)}
}

// West returns p shifted west (decreasing X) by amount, saturating at MinInt16.
func (p Position) West(amount int16) Position {
	return Position{X: satSub16(p.X, amount), Y: p.Y}
}

// East returns p shifted east (increasing X) by amount, saturating at MaxInt16.
func (p Position) East(amount int16) Position {
	return Position{X: satAdd16(p.X, amount), Y: p.Y}
}

// TaxicabDistance is |Δx| + |Δy|.
func (p Position) TaxicabDistance(other Position) int {
	return absDiff16(p.X, other.X) + absDiff16(p.Y, other.Y)
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

func absDiff16(a, b int16) int {
	if a > b {
		return int(a) - int(b)
	}
	return int(b) - int(a)
}

func satAdd16(a, b int16) int16 {
	sum := int32(a) + int32(b)
	if sum > 32767 {
		return 32767
	}
	if sum < -32768 {
		return -32768
	}
	return int16(sum)
}

func satSub16(a, b int16) int16 {
	return satAdd16(a, -b)
}

func wrapAdd16(a, b int16) int16 {
	return int16(int32(a) + int32(b))
}

func wrapSub16(a, b int16) int16 {
	return int16(int32(a) - int32(b))
}
