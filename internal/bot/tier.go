package bot

import (
	"github.com/HarshilD05/Super-XO/internal/entity"
)

// Tier is the decision strategy of the engine.
type Tier int

const (
	TierRandom Tier = iota
	TierHeuristic
	TierExact
)

func (t Tier) String() string {
	switch t {
	case TierRandom:
		return "random"
	case TierHeuristic:
		return "heuristic"
	case TierExact:
		return "exact"
	default:
		return "unknown"
	}
}

// TierFor maps a user-facing difficulty to a tier. The exact tier only
// knows single boards, so super games stay heuristic above random.
func TierFor(mode entity.Mode, difficulty entity.Difficulty) Tier {
	switch difficulty {
	case entity.DifficultyRandom:
		return TierRandom
	case entity.DifficultyHard:
		if mode == entity.ModeNormal {
			return TierExact
		}
		return TierHeuristic
	default:
		return TierHeuristic
	}
}
