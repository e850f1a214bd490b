package models

const ParseModeHTML = "HTML"

// Collection names in the record store.
const (
	CollectionClients  = "clients"
	CollectionBookings = "bookings"
)

const (
	StateEnterName    = "enter_name"
	StateEnterContact = "enter_contact"
	StatePickClient   = "pick_client"
	StateWaitingDate  = "waiting_date"
)

// DefaultTimeSlots is the studio's working day when no slots are configured.
var DefaultTimeSlots = []string{
	"10:00 - 12:00",
	"12:00 - 14:00",
	"14:00 - 16:00",
	"16:00 - 18:00",
	"18:00 - 20:00",
	"20:00 - 22:00",
}

const (
	// DefaultRedisTTL operator session lifetime in Redis, seconds
	DefaultRedisTTL = 24 * 60 * 60

	// RateLimitMessages messages allowed per window
	RateLimitMessages = 20

	// RateLimitWindow rate limit window, seconds
	RateLimitWindow = 60

	// UnknownClientName is shown for bookings whose client no longer exists.
	UnknownClientName = "Unknown client"
)
