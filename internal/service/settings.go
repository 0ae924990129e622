package service

import "ethics-review-be/pkg/assistant"

// ReviewSettings are the values every review service shares.
type ReviewSettings struct {
	Model     string
	StoreID   string
	Poll      assistant.PollConfig
	MaxRounds int
}
