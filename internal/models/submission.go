package models

import "time"

// DateLayout is the creation date format written to the destination table.
const DateLayout = "2006-01-02"

// Record is an immutable completed submission.
type Record struct {
	Ordinal   int               `json:"ordinal"`
	ID        string            `json:"id"`
	Category  Category          `json:"category"`
	Fields    map[string]string `json:"fields"`
	Submitter string            `json:"submitter"`
	CreatedAt time.Time         `json:"createdAt"`
}

func (r Record) Date() string {
	return r.CreatedAt.Format(DateLayout)
}
