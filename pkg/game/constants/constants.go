package constants

import "time"

const (
	// DefaultGracePeriod is how long a disconnected player's seat is held
	// before eviction.
	DefaultGracePeriod = 60 * time.Second

	// MaxChatMessageLength is the longest accepted chat message, in characters.
	MaxChatMessageLength = 500

	// ChatHistoryLimit is the number of chat entries retained per room.
	ChatHistoryLimit = 200

	// DiceUnrolled is the sentinel value for a die that has not been rolled.
	DiceUnrolled = -1

	DefaultPort    = 4000
	DefaultAPIPort = 4001
)

// PlayerSymbols is the fixed alphabet of player symbols. New players get
// the first symbol not already used in their room, in this order.
var PlayerSymbols = []string{
	"🐇", "🐄", "🐓", "🐖", "🐑", "🐎", "🦆", "🐐", "🐈", "🐕", "🦃",
}
