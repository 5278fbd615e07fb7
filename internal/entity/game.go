package entity

import (
	"fmt"

	"github.com/HarshilD05/Super-XO/internal/apperror"
)

// Mode is the board layout of a game.
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeSuper  Mode = "super"
)

// Opponent says who plays the second mark.
type Opponent string

const (
	OpponentPlayer Opponent = "pvp"
	OpponentBot    Opponent = "bot"
)

// Difficulty is the user-facing skill level of the bot.
type Difficulty string

const (
	DifficultyRandom Difficulty = "random"
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"

	DefaultDifficulty = DifficultyEasy
)

func ParseMode(raw string) (Mode, error) {
	switch mode := Mode(raw); mode {
	case ModeNormal, ModeSuper:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q", apperror.ErrUnknownMode, raw)
	}
}

func ParseOpponent(raw string) (Opponent, error) {
	switch opponent := Opponent(raw); opponent {
	case OpponentPlayer, OpponentBot:
		return opponent, nil
	default:
		return "", fmt.Errorf("%w: %q", apperror.ErrUnknownOpponent, raw)
	}
}

func ParseDifficulty(raw string) (Difficulty, error) {
	switch difficulty := Difficulty(raw); difficulty {
	case DifficultyRandom, DifficultyEasy, DifficultyMedium, DifficultyHard:
		return difficulty, nil
	case "":
		return DefaultDifficulty, nil
	default:
		return "", fmt.Errorf("%w: %q", apperror.ErrUnknownDifficulty, raw)
	}
}

// GameRecord is the stored form of the single active session of a player.
type GameRecord struct {
	ID         string     `json:"id"`
	Mode       Mode       `json:"mode"`
	Opponent   Opponent   `json:"opponent"`
	Difficulty Difficulty `json:"difficulty"`
	BotMark    Mark       `json:"bot_mark,omitempty"`
	Moves      []Move     `json:"moves"`
	Cursor     int        `json:"cursor"`
}
