package model

import (
	"fmt"
	"strings"
)

// Category is the reset cadence a task belongs to.
type Category string

const (
	CategoryDaily   Category = "daily"
	CategoryWeekly  Category = "weekly"
	CategoryMonthly Category = "monthly"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryDaily, CategoryWeekly, CategoryMonthly}

// ParseCategory accepts a category name in any case, surrounding spaces ignored.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", raw)
	}
	return c, nil
}

func (c Category) Valid() bool {
	switch c {
	case CategoryDaily, CategoryWeekly, CategoryMonthly:
		return true
	}
	return false
}

// Title returns the capitalized name used in headers.
func (c Category) Title() string {
	if c == "" {
		return ""
	}
	s := string(c)
	return strings.ToUpper(s[:1]) + s[1:]
}
