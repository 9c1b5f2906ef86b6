package models

import "time"

// Teacher represents an instructor record.
type Teacher struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Department string    `db:"department" json:"department"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Classroom represents a bookable room. Type is a descriptive label such as
// "Lecture Room", "Laboratory" or "Computer Laboratory" that drives room
// capability rules during solving.
type Classroom struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Type      string    `db:"type" json:"type"`
	Capacity  int       `db:"capacity" json:"capacity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Section represents a student cohort taking classes together.
type Section struct {
	ID        string    `db:"id" json:"id"`
	Program   string    `db:"program" json:"program"`
	Year      int       `db:"year" json:"year"`
	Label     string    `db:"label" json:"label"`
	Students  int       `db:"students" json:"students"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CatalogFilter captures common listing options for catalog resources.
type CatalogFilter struct {
	Search   string
	Page     int
	PageSize int
}
