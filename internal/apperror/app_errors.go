package apperror

import "errors"

var (
	ErrGameFinished      = errors.New("game is already finished")
	ErrIllegalMove       = errors.New("illegal move")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrNothingToUndo     = errors.New("nothing to undo")
	ErrNothingToRedo     = errors.New("nothing to redo")
	ErrNoLegalMoves      = errors.New("no legal moves")
	ErrStaleMove         = errors.New("move was planned for a stale position")
	ErrSessionNotFound   = errors.New("session not found")
	ErrUnknownMode       = errors.New("unknown game mode")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrUnknownOpponent   = errors.New("unknown opponent")
)
