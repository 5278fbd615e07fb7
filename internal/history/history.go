// Package history keeps an ordered move log with an undo/redo cursor.
//
// Moves before the cursor are live. Moves at or after it form the redo tail,
// which survives Back and Forward and is discarded by the next Push.
package history

type Log[M any] struct {
	moves  []M
	cursor int
}

// Push truncates the redo tail and appends m as the newest live move.
func (that *Log[M]) Push(m M) {
	that.moves = append(that.moves[:that.cursor], m)
	that.cursor++
}

// Back steps the cursor back and returns the move that is no longer live.
func (that *Log[M]) Back() (M, bool) {
	var zero M
	if that.cursor == 0 {
		return zero, false
	}

	that.cursor--

	return that.moves[that.cursor], true
}

// Peek returns the move Forward would replay.
func (that *Log[M]) Peek() (M, bool) {
	var zero M
	if that.cursor == len(that.moves) {
		return zero, false
	}

	return that.moves[that.cursor], true
}

// Forward returns the first move of the redo tail and makes it live again.
func (that *Log[M]) Forward() (M, bool) {
	m, ok := that.Peek()
	if !ok {
		return m, false
	}

	that.cursor++

	return m, true
}

// Last returns the newest live move.
func (that *Log[M]) Last() (M, bool) {
	var zero M
	if that.cursor == 0 {
		return zero, false
	}

	return that.moves[that.cursor-1], true
}

func (that *Log[M]) Cursor() int {
	return that.cursor
}

func (that *Log[M]) Len() int {
	return len(that.moves)
}

func (that *Log[M]) CanUndo() bool {
	return that.cursor > 0
}

func (that *Log[M]) CanRedo() bool {
	return that.cursor < len(that.moves)
}

// All returns a copy of the whole log, redo tail included.
func (that *Log[M]) All() []M {
	return append([]M(nil), that.moves...)
}
