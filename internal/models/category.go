package models

import "strings"

// Category is the kind of being a questionnaire classifies.
type Category string

const (
	CategoryHuman  Category = "human"
	CategoryAnimal Category = "animal"
	CategoryAlien  Category = "alien"
)

// Categories lists every category in keyboard order.
var Categories = []Category{CategoryHuman, CategoryAnimal, CategoryAlien}

// ParseCategory accepts a category name in any letter case.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", false
	}
	return c, true
}

func (c Category) Valid() bool {
	switch c {
	case CategoryHuman, CategoryAnimal, CategoryAlien:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }
