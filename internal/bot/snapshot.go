package bot

import (
	"errors"
	"fmt"

	"github.com/HarshilD05/Super-XO/internal/entity"
	"github.com/HarshilD05/Super-XO/internal/tictactoe"
)

var ErrMalformedSnapshot = errors.New("malformed snapshot")

// Snapshot is the read-only view of a position the engine decides on.
// A single-board game is a snapshot with one board and ActiveBoard 0.
type Snapshot struct {
	Boards       []tictactoe.Board
	ActiveBoard  int
	BoardWinners []entity.Mark
}

func SingleBoard(board tictactoe.Board) Snapshot {
	return Snapshot{
		Boards:       []tictactoe.Board{board},
		ActiveBoard:  0,
		BoardWinners: []entity.Mark{board.Winner()},
	}
}

// Validate checks the shape of the snapshot and the marks in it.
func (that Snapshot) Validate() error {
	if len(that.Boards) != 1 && len(that.Boards) != 9 {
		return fmt.Errorf("%w: %d boards", ErrMalformedSnapshot, len(that.Boards))
	}

	if len(that.BoardWinners) != len(that.Boards) {
		return fmt.Errorf("%w: %d winners for %d boards", ErrMalformedSnapshot, len(that.BoardWinners), len(that.Boards))
	}

	if that.ActiveBoard != entity.AnyBoard && (that.ActiveBoard < 0 || that.ActiveBoard >= len(that.Boards)) {
		return fmt.Errorf("%w: active board %d", ErrMalformedSnapshot, that.ActiveBoard)
	}

	for i, board := range that.Boards {
		if !board.IsValid() {
			return fmt.Errorf("%w: board %d has an unknown mark", ErrMalformedSnapshot, i)
		}

		if !that.BoardWinners[i].IsValid() {
			return fmt.Errorf("%w: board %d winner %q", ErrMalformedSnapshot, i, that.BoardWinners[i])
		}
	}

	return nil
}

// Candidates lists the moves the engine may choose from, in board then cell
// order. Won boards offer nothing.
func (that Snapshot) Candidates() []entity.Move {
	if that.ActiveBoard != entity.AnyBoard {
		return that.boardCandidates(that.ActiveBoard, nil)
	}

	var moves []entity.Move
	for i := range that.Boards {
		moves = that.boardCandidates(i, moves)
	}

	return moves
}

func (that Snapshot) boardCandidates(board int, moves []entity.Move) []entity.Move {
	if that.BoardWinners[board] != entity.Empty {
		return moves
	}

	for _, cell := range that.Boards[board].EmptyCells() {
		moves = append(moves, entity.NewMove(board, cell))
	}

	return moves
}
