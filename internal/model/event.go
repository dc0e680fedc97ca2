package model

import "time"

// Event is a single performance that seats are sold for.  Every event uses
// the venue layout held by the seat catalog; seats are not stored per event.
//
// Fields:
//  ID          – UUID string primary key.
//  Name        – title shown on tickets.
//  Description – free text for the event page.
//  Place       – human readable venue/address.
//  ImageURL    – cover image.
//  StartsAt    – start of the event (UTC).
//  CreatedAt   – creation timestamp.
type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Place       string    `json:"place"`
	ImageURL    string    `json:"image_url"`
	StartsAt    time.Time `json:"starts_at"`
	CreatedAt   time.Time `json:"created_at"`
}
