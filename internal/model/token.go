package model

import "time"

// Token is a pre-issued write token. Authorization is an exact match on Value.
type Token struct {
	Value     string    `json:"value"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}
