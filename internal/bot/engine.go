// Package bot chooses moves for the computer player.
package bot

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/HarshilD05/Super-XO/internal/entity"
	"github.com/HarshilD05/Super-XO/internal/tictactoe"
	"github.com/HarshilD05/Super-XO/internal/valuetable"
)

// Engine picks one legal move for a snapshot. It never changes the snapshot.
type Engine struct {
	mu     sync.Mutex
	rnd    *rand.Rand
	table  *valuetable.Table
	strict bool
}

// NewEngine returns an engine drawing from rnd. A nil table disables the
// exact tier. In strict mode a malformed snapshot panics instead of
// yielding no move.
func NewEngine(rnd *rand.Rand, table *valuetable.Table, strict bool) *Engine {
	return &Engine{
		rnd:    rnd,
		table:  table,
		strict: strict,
	}
}

// SelectMove returns a move for mover, false when the snapshot is malformed
// or has no candidates.
func (that *Engine) SelectMove(snapshot Snapshot, tier Tier, mover entity.Mark) (entity.Move, bool) {
	if err := snapshot.Validate(); err != nil {
		if that.strict {
			panic(err)
		}
		return entity.Move{}, false
	}

	if !mover.IsPlayer() {
		if that.strict {
			panic(fmt.Errorf("%w: mover %q", ErrMalformedSnapshot, mover))
		}
		return entity.Move{}, false
	}

	candidates := snapshot.Candidates()
	if len(candidates) == 0 {
		return entity.Move{}, false
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	switch tier {
	case TierRandom:
		return that.pick(candidates), true
	case TierExact:
		if move, ok := that.exactMove(snapshot, candidates, mover); ok {
			return move, true
		}
	}

	return that.heuristicMove(snapshot, candidates, mover), true
}

func (that *Engine) pick(moves []entity.Move) entity.Move {
	return moves[that.rnd.Intn(len(moves))] //nolint: gosec // it's ok
}

// exactMove reads the value table. X maximizes, O minimizes, ties go to the
// lowest cell.
func (that *Engine) exactMove(snapshot Snapshot, candidates []entity.Move, mover entity.Mark) (entity.Move, bool) {
	if that.table == nil || len(snapshot.Boards) != 1 {
		return entity.Move{}, false
	}

	encoded := snapshot.Boards[0].Encode()

	var (
		best      entity.Move
		bestValue int8
		found     bool
	)

	for _, move := range candidates {
		value, ok := that.table.Value(encoded, move.Cell)
		if !ok {
			continue
		}

		if !found || (mover == entity.PlayerX && value > bestValue) || (mover == entity.PlayerO && value < bestValue) {
			best, bestValue, found = move, value, true
		}
	}

	return best, found
}

func (that *Engine) heuristicMove(snapshot Snapshot, candidates []entity.Move, mover entity.Mark) entity.Move {
	opponent := mover.Opponent()

	if moves := completingMoves(snapshot, candidates, mover); len(moves) > 0 {
		return that.pick(moves)
	}

	if moves := completingMoves(snapshot, candidates, opponent); len(moves) > 0 {
		return that.pick(moves)
	}

	if moves := cellMoves(candidates, tictactoe.Corners[:]); len(moves) > 0 {
		return that.pick(moves)
	}

	for _, move := range candidates {
		if move.Cell == tictactoe.Center {
			return move
		}
	}

	if move, ok := oppositeCornerMove(snapshot, candidates, opponent); ok {
		return move
	}

	if moves := cellMoves(candidates, tictactoe.Edges[:]); len(moves) > 0 {
		return that.pick(moves)
	}

	return that.pick(candidates)
}

// completingMoves returns the candidates that would complete a line for mark
// on their own board.
func completingMoves(snapshot Snapshot, candidates []entity.Move, mark entity.Mark) []entity.Move {
	var moves []entity.Move
	for _, move := range candidates {
		if snapshot.Boards[move.Board].With(move.Cell, mark).Winner() == mark {
			moves = append(moves, move)
		}
	}

	return moves
}

func cellMoves(candidates []entity.Move, cells []int) []entity.Move {
	var moves []entity.Move
	for _, move := range candidates {
		for _, cell := range cells {
			if move.Cell == cell {
				moves = append(moves, move)
				break
			}
		}
	}

	return moves
}

// oppositeCornerMove returns the first corner candidate facing a corner held
// by opponent on the same board.
func oppositeCornerMove(snapshot Snapshot, candidates []entity.Move, opponent entity.Mark) (entity.Move, bool) {
	for _, move := range candidates {
		opposite, ok := tictactoe.OppositeCorner[move.Cell]
		if ok && snapshot.Boards[move.Board][opposite] == opponent {
			return move, true
		}
	}

	return entity.Move{}, false
}
