package tictactoe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HarshilD05/Super-XO/internal/entity"
)

const (
	CellCount = 9
	Center    = 4

	// encoded board characters
	emptyChar = '.'
	xChar     = 'X'
	oChar     = 'O'
)

var (
	ErrInvalidCell     = errors.New("invalid cell index")
	ErrInvalidEncoding = errors.New("invalid board encoding")

	Corners = [4]int{0, 2, 6, 8}
	Edges   = [4]int{1, 3, 5, 7}

	// OppositeCorner maps a corner to the corner across the board.
	OppositeCorner = map[int]int{0: 8, 2: 6, 6: 2, 8: 0}
)

// Board is one 3x3 grid, row-major. It holds values only; whether a move is
// allowed is decided by the games that own boards.
type Board [CellCount]entity.Mark

func (that Board) Winner() entity.Mark {
	return Winner(that)
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == entity.Empty {
			return false
		}
	}

	return true
}

func (that Board) IsEmptyAt(cell int) bool {
	return cell >= 0 && cell < CellCount && that[cell] == entity.Empty
}

func (that Board) EmptyCells() []int {
	cells := make([]int, 0, CellCount)
	for i, cell := range that {
		if cell == entity.Empty {
			cells = append(cells, i)
		}
	}

	return cells
}

// Count returns how many cells hold mark.
func (that Board) Count(mark entity.Mark) int {
	count := 0
	for _, cell := range that {
		if cell == mark {
			count++
		}
	}

	return count
}

// With returns a copy of the board with mark written at cell.
func (that Board) With(cell int, mark entity.Mark) Board {
	that[cell] = mark
	return that
}

// IsValid reports whether every cell holds a known mark.
func (that Board) IsValid() bool {
	for _, cell := range that {
		if !cell.IsValid() {
			return false
		}
	}

	return true
}

// Encode returns the canonical 9-character form, '.' for empty cells.
func (that Board) Encode() string {
	var sb strings.Builder
	sb.Grow(CellCount)

	for _, cell := range that {
		switch cell {
		case entity.PlayerX:
			sb.WriteByte(xChar)
		case entity.PlayerO:
			sb.WriteByte(oChar)
		default:
			sb.WriteByte(emptyChar)
		}
	}

	return sb.String()
}

func (that Board) String() string {
	return that.Encode()
}

// DecodeBoard parses the canonical encoding produced by Encode.
func DecodeBoard(encoded string) (Board, error) {
	var board Board

	if len(encoded) != CellCount {
		return board, fmt.Errorf("%w: length %d", ErrInvalidEncoding, len(encoded))
	}

	for i := 0; i < CellCount; i++ {
		switch encoded[i] {
		case emptyChar:
			board[i] = entity.Empty
		case xChar:
			board[i] = entity.PlayerX
		case oChar:
			board[i] = entity.PlayerO
		default:
			return board, fmt.Errorf("%w: %q at %d", ErrInvalidEncoding, encoded[i], i)
		}
	}

	return board, nil
}
