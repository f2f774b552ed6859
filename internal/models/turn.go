package models

import "time"

// Turn is one user-utterance/assistant-response pair stored in a session.
type Turn struct {
	ID            string    `json:"id"`
	UserText      string    `json:"userText"`
	AssistantText string    `json:"assistantText"`
	At            time.Time `json:"at"`
}
