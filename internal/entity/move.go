package entity

// AnyBoard means the next move is not constrained to a single board.
const AnyBoard = -1

// Move is a (board, cell) pair. Single-board games always use board 0.
type Move struct {
	Board int `json:"board"`
	Cell  int `json:"cell"`
}

func NewMove(board, cell int) Move {
	return Move{Board: board, Cell: cell}
}

func (that Move) IsValid(boards int) bool {
	return that.Board >= 0 && that.Board < boards && that.Cell >= 0 && that.Cell < 9
}
