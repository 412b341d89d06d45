package models

import (
	"github.com/go-playground/validator/v10"
)

type Course struct {
	ID         int64   `db:"id" json:"id"`
	Name       string  `db:"name" json:"name" validate:"required,max=120"`
	FeeBalance float64 `db:"fee_balance" json:"fee_balance" validate:"gte=0"`
	FeePerYear float64 `db:"fee_per_year" json:"fee_per_year" validate:"gte=0"`
}

// Applications reference courses by name, not id. Deleting a course leaves
// any applications pointing at it untouched; the dangling name is tolerated.
func (c *Course) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fieldErrors(err)
	}
	return nil
}
