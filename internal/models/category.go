package models

import "strings"

// Category is the closed set of contribution kinds
type Category string

const (
	CategoryPlaces    Category = "PLACES"
	CategoryDance     Category = "DANCE"
	CategoryFood      Category = "FOOD"
	CategoryTradition Category = "TRADITION"
)

// Categories lists every category in display order
var Categories = []Category{CategoryPlaces, CategoryDance, CategoryFood, CategoryTradition}

var categoryLabels = map[Category]string{
	CategoryPlaces:    "Places",
	CategoryDance:     "Dance",
	CategoryFood:      "Food",
	CategoryTradition: "Tradition",
}

// Label returns the human readable name
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Valid reports enum membership
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// ParseCategory accepts either the stored code or the label, case-insensitively
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) || strings.EqualFold(s, c.Label()) {
			return c, true
		}
	}
	return "", false
}
