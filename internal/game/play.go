package game

import (
	"fmt"

	"github.com/HarshilD05/Super-XO/internal/bot"
	"github.com/HarshilD05/Super-XO/internal/entity"
	"github.com/HarshilD05/Super-XO/internal/superxo"
	"github.com/HarshilD05/Super-XO/internal/tictactoe"
)

// play is the common surface of the single-board game and the super game.
type play interface {
	apply(move entity.Move) bool
	undo()
	redo()
	snapshot() bot.Snapshot
	nextMark() entity.Mark
	winner() entity.Mark
	isDraw() bool
	cursor() int
	canUndo() bool
	canRedo() bool
	moves() []entity.Move
}

func newPlay(mode entity.Mode) play {
	if mode == entity.ModeSuper {
		return superPlay{state: superxo.New()}
	}

	return normalPlay{game: tictactoe.NewGame()}
}

// replayPlay rebuilds a game from its full log and cursor.
func replayPlay(mode entity.Mode, moves []entity.Move, cursor int) (play, error) {
	if mode == entity.ModeSuper {
		state, err := superxo.Replay(moves, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to replay super game: %w", err)
		}

		return superPlay{state: state}, nil
	}

	if cursor < 0 || cursor > len(moves) {
		return nil, fmt.Errorf("%w: cursor %d of %d", superxo.ErrInvalidLog, cursor, len(moves))
	}

	normal := normalPlay{game: tictactoe.NewGame()}
	for i, move := range moves {
		if !normal.apply(move) {
			return nil, fmt.Errorf("%w: move %d %+v rejected", superxo.ErrInvalidLog, i, move)
		}
	}

	for normal.cursor() > cursor {
		normal.undo()
	}

	return normal, nil
}

type normalPlay struct {
	game *tictactoe.Game
}

func (that normalPlay) apply(move entity.Move) bool {
	return move.Board == 0 && that.game.ApplyMove(move.Cell)
}

func (that normalPlay) undo()                  { that.game.Undo() }
func (that normalPlay) redo()                  { that.game.Redo() }
func (that normalPlay) nextMark() entity.Mark  { return that.game.NextMark() }
func (that normalPlay) winner() entity.Mark    { return that.game.Winner() }
func (that normalPlay) isDraw() bool           { return that.game.IsDraw() }
func (that normalPlay) cursor() int            { return that.game.Cursor() }
func (that normalPlay) canUndo() bool          { return that.game.CanUndo() }
func (that normalPlay) canRedo() bool          { return that.game.CanRedo() }
func (that normalPlay) snapshot() bot.Snapshot { return bot.SingleBoard(that.game.Board()) }

func (that normalPlay) moves() []entity.Move {
	cells := that.game.Moves()
	moves := make([]entity.Move, len(cells))
	for i, cell := range cells {
		moves[i] = entity.NewMove(0, cell)
	}

	return moves
}

type superPlay struct {
	state *superxo.State
}

func (that superPlay) apply(move entity.Move) bool {
	return that.state.ApplyMove(move.Board, move.Cell)
}

func (that superPlay) undo()                 { that.state.Undo() }
func (that superPlay) redo()                 { that.state.Redo() }
func (that superPlay) nextMark() entity.Mark { return that.state.NextMark() }
func (that superPlay) winner() entity.Mark   { return that.state.SuperWinner() }
func (that superPlay) isDraw() bool          { return that.state.IsDraw() }
func (that superPlay) cursor() int           { return that.state.Cursor() }
func (that superPlay) canUndo() bool         { return that.state.CanUndo() }
func (that superPlay) canRedo() bool         { return that.state.CanRedo() }
func (that superPlay) moves() []entity.Move  { return that.state.Moves() }

func (that superPlay) snapshot() bot.Snapshot {
	boards := that.state.Boards()
	winners := that.state.BoardWinners()

	return bot.Snapshot{
		Boards:       boards[:],
		ActiveBoard:  that.state.ActiveBoard(),
		BoardWinners: winners[:],
	}
}
