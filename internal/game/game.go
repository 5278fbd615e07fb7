// Package game holds one live session: the authoritative game, who plays it
// and the generation counter that guards delayed bot moves.
package game

import (
	"fmt"

	"github.com/HarshilD05/Super-XO/internal/apperror"
	"github.com/HarshilD05/Super-XO/internal/bot"
	"github.com/HarshilD05/Super-XO/internal/entity"
)

type moveSelector interface {
	SelectMove(snapshot bot.Snapshot, tier bot.Tier, mover entity.Mark) (entity.Move, bool)
}

// PendingMove is a bot move computed for the position at Generation.
type PendingMove struct {
	Move       entity.Move
	Generation uint64
}

// Session is not safe for concurrent use; callers serialize access.
type Session struct {
	ID         string
	Mode       entity.Mode
	Opponent   entity.Opponent
	Difficulty entity.Difficulty
	BotMark    entity.Mark

	play       play
	generation uint64
}

func NewSession(id string, mode entity.Mode, opponent entity.Opponent, difficulty entity.Difficulty, botMark entity.Mark) *Session {
	if opponent != entity.OpponentBot {
		botMark = entity.Empty
	}

	return &Session{
		ID:         id,
		Mode:       mode,
		Opponent:   opponent,
		Difficulty: difficulty,
		BotMark:    botMark,
		play:       newPlay(mode),
	}
}

// FromRecord rebuilds a stored session by replaying its log.
func FromRecord(record *entity.GameRecord) (*Session, error) {
	play, err := replayPlay(record.Mode, record.Moves, record.Cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session %s: %w", record.ID, err)
	}

	session := NewSession(record.ID, record.Mode, record.Opponent, record.Difficulty, record.BotMark)
	session.play = play

	return session, nil
}

func (that *Session) Record() *entity.GameRecord {
	return &entity.GameRecord{
		ID:         that.ID,
		Mode:       that.Mode,
		Opponent:   that.Opponent,
		Difficulty: that.Difficulty,
		BotMark:    that.BotMark,
		Moves:      that.play.moves(),
		Cursor:     that.play.cursor(),
	}
}

// Snapshot returns a copy of the position; later moves do not change it.
func (that *Session) Snapshot() bot.Snapshot {
	return that.play.snapshot()
}

func (that *Session) Generation() uint64 {
	return that.generation
}

func (that *Session) NextMark() entity.Mark {
	return that.play.nextMark()
}

func (that *Session) Winner() entity.Mark {
	return that.play.winner()
}

func (that *Session) IsOver() bool {
	return that.play.winner() != entity.Empty || that.play.isDraw()
}

func (that *Session) IsWithBot() bool {
	return that.Opponent == entity.OpponentBot
}

// IsBotTurn reports whether the next move belongs to the bot.
func (that *Session) IsBotTurn() bool {
	return that.IsWithBot() && !that.IsOver() && that.play.nextMark() == that.BotMark
}

func (that *Session) ApplyHumanMove(move entity.Move) error {
	if that.IsOver() {
		return apperror.ErrGameFinished
	}

	if that.IsBotTurn() {
		return apperror.ErrNotYourTurn
	}

	if !that.play.apply(move) {
		return fmt.Errorf("%w: board %d cell %d", apperror.ErrIllegalMove, move.Board, move.Cell)
	}

	that.generation++

	return nil
}

func (that *Session) Undo() error {
	if !that.play.canUndo() {
		return apperror.ErrNothingToUndo
	}

	that.play.undo()
	that.generation++

	return nil
}

func (that *Session) Redo() error {
	if !that.play.canRedo() {
		return apperror.ErrNothingToRedo
	}

	that.play.redo()
	that.generation++

	return nil
}

// Reset starts the same kind of game over with a new bot mark.
func (that *Session) Reset(botMark entity.Mark) {
	if that.IsWithBot() {
		that.BotMark = botMark
	}

	that.play = newPlay(that.Mode)
	that.generation++
}

// PlanBotMove picks the bot move for the current position without playing it.
func (that *Session) PlanBotMove(selector moveSelector) (PendingMove, error) {
	if !that.IsBotTurn() {
		return PendingMove{}, apperror.ErrNotYourTurn
	}

	move, ok := selector.SelectMove(that.Snapshot(), bot.TierFor(that.Mode, that.Difficulty), that.BotMark)
	if !ok {
		return PendingMove{}, apperror.ErrNoLegalMoves
	}

	return PendingMove{Move: move, Generation: that.generation}, nil
}

// CommitBotMove plays a planned move unless the position changed since it was
// planned.
func (that *Session) CommitBotMove(pending PendingMove) error {
	if pending.Generation != that.generation {
		return fmt.Errorf("%w: planned at %d, now %d", apperror.ErrStaleMove, pending.Generation, that.generation)
	}

	if !that.IsBotTurn() {
		return apperror.ErrNotYourTurn
	}

	if !that.play.apply(pending.Move) {
		return fmt.Errorf("%w: board %d cell %d", apperror.ErrIllegalMove, pending.Move.Board, pending.Move.Cell)
	}

	that.generation++

	return nil
}

func (that *Session) View() *View {
	snapshot := that.play.snapshot()

	view := &View{
		ID:           that.ID,
		Mode:         that.Mode,
		Opponent:     that.Opponent,
		BotMark:      that.BotMark,
		Boards:       make([][9]entity.Mark, len(snapshot.Boards)),
		ActiveBoard:  snapshot.ActiveBoard,
		BoardWinners: snapshot.BoardWinners,
		Turn:         that.play.nextMark(),
		Status:       StatusOngoing,
		Cursor:       that.play.cursor(),
		CanUndo:      that.play.canUndo(),
		CanRedo:      that.play.canRedo(),
	}

	if that.IsWithBot() {
		view.Difficulty = that.Difficulty
	}

	for i, board := range snapshot.Boards {
		view.Boards[i] = board
	}

	switch {
	case that.play.winner() != entity.Empty:
		view.Winner = string(that.play.winner())
		view.Status = StatusFinished
	case that.play.isDraw():
		view.Winner = WinnerTie
		view.Status = StatusFinished
	}

	return view
}
