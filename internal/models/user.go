package models

// User identifies the person answering the questionnaire.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
