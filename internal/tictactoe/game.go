package tictactoe

import (
	"github.com/HarshilD05/Super-XO/internal/entity"
	"github.com/HarshilD05/Super-XO/internal/history"
)

// Game is a single 3x3 game with undo and redo. X always moves first and the
// mark of every move follows from its position in the log.
type Game struct {
	board  Board
	winner entity.Mark
	log    history.Log[int]
}

func NewGame() *Game {
	return &Game{}
}

// ApplyMove plays the next mark at cell. Moves on a decided board or an
// occupied cell are ignored and reported as false.
func (that *Game) ApplyMove(cell int) bool {
	if that.winner != entity.Empty || !that.board.IsEmptyAt(cell) {
		return false
	}

	that.place(cell, entity.MarkForPly(that.log.Cursor()))
	that.log.Push(cell)

	return true
}

func (that *Game) Undo() {
	cell, ok := that.log.Back()
	if !ok {
		return
	}

	that.board[cell] = entity.Empty
	that.winner = entity.Empty
}

func (that *Game) Redo() {
	mark := entity.MarkForPly(that.log.Cursor())

	cell, ok := that.log.Forward()
	if !ok {
		return
	}

	that.place(cell, mark)
}

func (that *Game) place(cell int, mark entity.Mark) {
	that.board[cell] = mark
	that.winner = that.board.Winner()
}

func (that *Game) Board() Board {
	return that.board
}

func (that *Game) Winner() entity.Mark {
	return that.winner
}

// IsDraw reports a full board without a winner.
func (that *Game) IsDraw() bool {
	return that.winner == entity.Empty && that.board.IsFull()
}

func (that *Game) IsOver() bool {
	return that.winner != entity.Empty || that.board.IsFull()
}

func (that *Game) NextMark() entity.Mark {
	return entity.MarkForPly(that.log.Cursor())
}

func (that *Game) Cursor() int {
	return that.log.Cursor()
}

func (that *Game) Len() int {
	return that.log.Len()
}

func (that *Game) CanUndo() bool {
	return that.log.CanUndo()
}

func (that *Game) CanRedo() bool {
	return that.log.CanRedo()
}

// Moves returns the whole log, redo tail included.
func (that *Game) Moves() []int {
	return that.log.All()
}
