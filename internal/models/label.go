package models

import "time"

// Label is a colored tag attachable to issues.
type Label struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"` // "#rrggbb"
	CreatedAt   time.Time `json:"createdAt"`
}

// LabelInput is the create/update payload.
type LabelInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}
