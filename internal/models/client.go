package models

import "time"

// Client is the denormalized last-known company/location of a named client.
// It is refreshed by every check-in and is never authoritative.
type Client struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Company   string    `json:"company"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateClientRequest represents the request body for creating a client
type CreateClientRequest struct {
	Name     string `json:"name"`
	Company  string `json:"company"`
	Location string `json:"location"`
}
