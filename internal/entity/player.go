package entity

// Preferences are remembered per player between games.
type Preferences struct {
	Difficulty Difficulty `json:"difficulty"`
	Mode       Mode       `json:"mode,omitempty"`
}

type Player struct {
	ID          string      `json:"id"`
	GameID      string      `json:"game_id,omitempty"`
	Preferences Preferences `json:"preferences"`
}
