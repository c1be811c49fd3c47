package models

import "time"

// Student represents a learner whose wellbeing is tracked. Registration and
// profile management belong to the upstream user system; this service only
// reads the roster.
type Student struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	AgeGroup  string    `db:"age_group" json:"age_group"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
