package game

import (
	"github.com/HarshilD05/Super-XO/internal/entity"
)

const (
	StatusOngoing  = "ongoing"
	StatusFinished = "finished"

	// WinnerTie marks a finished game without a winner.
	WinnerTie = "-"
)

// View is the wire form of a session.
type View struct {
	ID           string            `json:"id"`
	Mode         entity.Mode       `json:"mode"`
	Opponent     entity.Opponent   `json:"opponent"`
	Difficulty   entity.Difficulty `json:"difficulty,omitempty"`
	BotMark      entity.Mark       `json:"bot_mark,omitempty"`
	Boards       [][9]entity.Mark  `json:"boards"`
	ActiveBoard  int               `json:"active_board"`
	BoardWinners []entity.Mark     `json:"board_winners"`
	Turn         entity.Mark       `json:"turn"`
	Winner       string            `json:"winner"`
	Status       string            `json:"status"`
	Cursor       int               `json:"cursor"`
	CanUndo      bool              `json:"can_undo"`
	CanRedo      bool              `json:"can_redo"`
}
