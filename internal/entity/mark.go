package entity

import (
	"math/rand"
)

// Mark is the content of a single cell.
type Mark string

const (
	Empty   Mark = ""
	PlayerX Mark = "X"
	PlayerO Mark = "O"
)

// IsValid reports whether m is one of the three cell values.
func (m Mark) IsValid() bool {
	return m == Empty || m == PlayerX || m == PlayerO
}

// IsPlayer reports whether m is a player mark.
func (m Mark) IsPlayer() bool {
	return m == PlayerX || m == PlayerO
}

// Opponent returns the other player mark, Empty stays Empty.
func (m Mark) Opponent() Mark {
	switch m {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return Empty
	}
}

// MarkForPly returns the mark that plays the given zero-based ply. X always starts.
func MarkForPly(ply int) Mark {
	if ply%2 == 0 {
		return PlayerX
	}
	return PlayerO
}

// RandomMarks returns the human mark and the bot mark, chosen uniformly.
func RandomMarks(rnd *rand.Rand) (Mark, Mark) {
	if rnd.Intn(2) == 0 { //nolint: gosec // it's ok
		return PlayerX, PlayerO
	}
	return PlayerO, PlayerX
}
