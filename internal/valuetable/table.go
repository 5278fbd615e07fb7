// Package valuetable holds the solved 3x3 game: for every reachable position
// and every legal move, the minimax value of the position after the move.
//
// Values are always from X's side: +1 X wins, 0 draw, -1 O wins, whoever is
// to move. The table is built once and only read afterwards.
package valuetable

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/HarshilD05/Super-XO/internal/entity"
	"github.com/HarshilD05/Super-XO/internal/tictactoe"
)

const (
	OWins int8 = -1
	Draw  int8 = 0
	XWins int8 = 1
)

var ErrMalformedTable = errors.New("malformed value table")

// Node is the outcome of one move, in the game-tree file format.
type Node struct {
	State     string `json:"state"`
	GameValue int8   `json:"gameValue"`
}

type Table struct {
	entries map[string]map[int]Node
}

var (
	defaultTable *Table
	defaultOnce  sync.Once
)

// Default returns the table built in memory on first use.
func Default() *Table {
	defaultOnce.Do(func() {
		defaultTable = Build()
	})

	return defaultTable
}

// Build solves the game from the empty board. Only positions with a legal
// move get an entry.
func Build() *Table {
	solver := &solver{values: make(map[tictactoe.Board]int8)}
	table := &Table{entries: make(map[string]map[int]Node)}

	table.walk(solver, tictactoe.Board{})

	return table
}

func (that *Table) walk(solver *solver, board tictactoe.Board) {
	key := board.Encode()
	if _, seen := that.entries[key]; seen || isTerminal(board) {
		return
	}

	mover := sideToMove(board)
	moves := make(map[int]Node, tictactoe.CellCount)
	that.entries[key] = moves

	for _, cell := range board.EmptyCells() {
		next := board.With(cell, mover)
		moves[cell] = Node{State: next.Encode(), GameValue: solver.value(next)}
		that.walk(solver, next)
	}
}

type solver struct {
	values map[tictactoe.Board]int8
}

// value returns the minimax value of board with the side to move derived
// from the mark counts.
func (that *solver) value(board tictactoe.Board) int8 {
	if v, ok := that.values[board]; ok {
		return v
	}

	var v int8
	switch winner := board.Winner(); {
	case winner == entity.PlayerX:
		v = XWins
	case winner == entity.PlayerO:
		v = OWins
	case board.IsFull():
		v = Draw
	default:
		mover := sideToMove(board)
		v = that.value(board.With(board.EmptyCells()[0], mover))
		for _, cell := range board.EmptyCells()[1:] {
			next := that.value(board.With(cell, mover))
			if (mover == entity.PlayerX && next > v) || (mover == entity.PlayerO && next < v) {
				v = next
			}
		}
	}

	that.values[board] = v

	return v
}

func sideToMove(board tictactoe.Board) entity.Mark {
	if board.Count(entity.PlayerX) > board.Count(entity.PlayerO) {
		return entity.PlayerO
	}

	return entity.PlayerX
}

func isTerminal(board tictactoe.Board) bool {
	return board.Winner() != entity.Empty || board.IsFull()
}

// Lookup returns the move values stored for an encoded board.
func (that *Table) Lookup(encoded string) (map[int]int8, bool) {
	moves, ok := that.entries[encoded]
	if !ok {
		return nil, false
	}

	values := make(map[int]int8, len(moves))
	for cell, node := range moves {
		values[cell] = node.GameValue
	}

	return values, true
}

// Value returns the value of playing cell on the encoded board.
func (that *Table) Value(encoded string, cell int) (int8, bool) {
	node, ok := that.entries[encoded][cell]
	return node.GameValue, ok
}

// Len returns the number of positions in the table.
func (that *Table) Len() int {
	return len(that.entries)
}

// Keys returns the encoded boards in the table, sorted.
func (that *Table) Keys() []string {
	keys := make([]string, 0, len(that.entries))
	for key := range that.entries {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}

// WriteJSON writes the table in the game-tree file format.
func (that *Table) WriteJSON(w io.Writer) error {
	if err := json.NewEncoder(w).Encode(that.entries); err != nil {
		return fmt.Errorf("failed to encode value table: %w", err)
	}

	return nil
}

// Load reads a table in the game-tree file format.
func Load(r io.Reader) (*Table, error) {
	entries := make(map[string]map[int]Node)
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTable, err)
	}

	for key, moves := range entries {
		board, err := tictactoe.DecodeBoard(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedTable, err)
		}

		for cell, node := range moves {
			if !board.IsEmptyAt(cell) {
				return nil, fmt.Errorf("%w: board %s has no empty cell %d", ErrMalformedTable, key, cell)
			}

			if node.GameValue < OWins || node.GameValue > XWins {
				return nil, fmt.Errorf("%w: board %s cell %d value %d", ErrMalformedTable, key, cell, node.GameValue)
			}
		}
	}

	return &Table{entries: entries}, nil
}
