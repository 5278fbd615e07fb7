package pkg

import (
	"github.com/google/uuid"
)

// GenerateGameID - generates a new unique game session ID.
func GenerateGameID() string {
	return uuid.NewString()
}

// GenerateNewPlayerID - generates the ID stored in the player cookie.
func GenerateNewPlayerID() string {
	return "p-" + uuid.NewString()
}
