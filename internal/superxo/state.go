// Package superxo implements the nine-board game and its active-board rule.
//
// The cached fields of State (active board, board winners, super winner) must
// always equal what replaying the live moves from an empty state produces.
// ApplyMove, Undo and Redo keep that equality incrementally; Replay is the
// reference used to check it.
package superxo

import (
	"errors"
	"fmt"

	"github.com/HarshilD05/Super-XO/internal/entity"
	"github.com/HarshilD05/Super-XO/internal/history"
	"github.com/HarshilD05/Super-XO/internal/tictactoe"
)

const BoardCount = 9

var ErrInvalidLog = errors.New("move log does not replay")

type State struct {
	boards       [BoardCount]tictactoe.Board
	activeBoard  int
	boardWinners [BoardCount]entity.Mark
	superWinner  entity.Mark
	log          history.Log[entity.Move]
}

func New() *State {
	return &State{activeBoard: entity.AnyBoard}
}

// Replay builds a state by applying moves from the empty position and then
// undoing back to cursor, so moves[cursor:] stays available for Redo.
func Replay(moves []entity.Move, cursor int) (*State, error) {
	if cursor < 0 || cursor > len(moves) {
		return nil, fmt.Errorf("%w: cursor %d of %d", ErrInvalidLog, cursor, len(moves))
	}

	state := New()
	for i, move := range moves {
		if !state.ApplyMove(move.Board, move.Cell) {
			return nil, fmt.Errorf("%w: move %d %+v rejected", ErrInvalidLog, i, move)
		}
	}

	for state.Cursor() > cursor {
		state.Undo()
	}

	return state, nil
}

// CanApply reports whether ApplyMove would accept the move.
func (that *State) CanApply(board, cell int) bool {
	switch {
	case that.superWinner != entity.Empty:
		return false
	case board < 0 || board >= BoardCount:
		return false
	case that.activeBoard != entity.AnyBoard && that.activeBoard != board:
		return false
	case that.boardWinners[board] != entity.Empty:
		return false
	default:
		return that.boards[board].IsEmptyAt(cell)
	}
}

// ApplyMove plays the next mark. Illegal moves leave the state untouched and
// return false.
func (that *State) ApplyMove(board, cell int) bool {
	if !that.CanApply(board, cell) {
		return false
	}

	mark := entity.MarkForPly(that.log.Cursor())
	that.log.Push(entity.NewMove(board, cell))
	that.place(board, cell, mark)

	return true
}

// Undo takes back the newest live move. The active board becomes the
// constraint that was in force before that move. A board can only have been
// won by the move that completed its line, so clearing that board's winner
// is exact.
func (that *State) Undo() {
	move, ok := that.log.Back()
	if !ok {
		return
	}

	that.boards[move.Board][move.Cell] = entity.Empty
	that.boardWinners[move.Board] = entity.Empty
	that.superWinner = entity.Empty

	// the constraint in force before the undone move was set by the move before it
	prev, ok := that.log.Last()
	if !ok {
		that.activeBoard = entity.AnyBoard
		return
	}

	that.activeBoard = that.nextActiveBoard(prev.Cell)
}

// Redo replays the first move of the redo tail without validating it again.
func (that *State) Redo() {
	mark := entity.MarkForPly(that.log.Cursor())

	move, ok := that.log.Forward()
	if !ok {
		return
	}

	that.place(move.Board, move.Cell, mark)
}

func (that *State) place(board, cell int, mark entity.Mark) {
	that.boards[board][cell] = mark

	if winner := that.boards[board].Winner(); winner != entity.Empty {
		that.boardWinners[board] = winner

		if that.superWinner = tictactoe.Winner(that.boardWinners); that.superWinner != entity.Empty {
			that.activeBoard = entity.AnyBoard
			return
		}
	}

	that.activeBoard = that.nextActiveBoard(cell)
}

// nextActiveBoard applies the send-to-board rule for a move played at cell.
func (that *State) nextActiveBoard(cell int) int {
	if that.boardWinners[cell] != entity.Empty || that.boards[cell].IsFull() {
		return entity.AnyBoard
	}

	return cell
}

// LegalMoves lists every move ApplyMove would accept, board by board.
func (that *State) LegalMoves() []entity.Move {
	if that.superWinner != entity.Empty {
		return nil
	}

	moves := make([]entity.Move, 0, tictactoe.CellCount)
	for board := 0; board < BoardCount; board++ {
		if !that.isOpen(board) {
			continue
		}

		for _, cell := range that.boards[board].EmptyCells() {
			moves = append(moves, entity.NewMove(board, cell))
		}
	}

	return moves
}

func (that *State) isOpen(board int) bool {
	if that.activeBoard != entity.AnyBoard {
		return board == that.activeBoard
	}

	return that.boardWinners[board] == entity.Empty && !that.boards[board].IsFull()
}

// IsDraw reports a game with no super winner and no move left.
func (that *State) IsDraw() bool {
	return that.superWinner == entity.Empty && len(that.LegalMoves()) == 0
}

func (that *State) IsOver() bool {
	return that.superWinner != entity.Empty || that.IsDraw()
}

func (that *State) Boards() [BoardCount]tictactoe.Board {
	return that.boards
}

func (that *State) Board(index int) tictactoe.Board {
	return that.boards[index]
}

// ActiveBoard returns the board the next move must be played on, or entity.AnyBoard.
func (that *State) ActiveBoard() int {
	return that.activeBoard
}

func (that *State) BoardWinners() [BoardCount]entity.Mark {
	return that.boardWinners
}

func (that *State) SuperWinner() entity.Mark {
	return that.superWinner
}

func (that *State) NextMark() entity.Mark {
	return entity.MarkForPly(that.log.Cursor())
}

func (that *State) Cursor() int {
	return that.log.Cursor()
}

func (that *State) Len() int {
	return that.log.Len()
}

func (that *State) CanUndo() bool {
	return that.log.CanUndo()
}

func (that *State) CanRedo() bool {
	return that.log.CanRedo()
}

// Moves returns the whole log, redo tail included.
func (that *State) Moves() []entity.Move {
	return that.log.All()
}
