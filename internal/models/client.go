package models

// Client is a band or person that books the room.
type Client struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
}
