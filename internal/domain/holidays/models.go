package holidays

import (
	"strings"
	"time"

	"leavestride/internal/platform/apperr"
)

type Category string

const (
	CategoryNational Category = "NATIONAL"
	CategoryRegional Category = "REGIONAL"
	CategoryCompany  Category = "COMPANY"
)

func ParseCategory(raw string) (Category, error) {
	switch c := Category(strings.ToUpper(strings.TrimSpace(raw))); c {
	case CategoryNational, CategoryRegional, CategoryCompany:
		return c, nil
	case "":
		return CategoryCompany, nil
	}
	return "", apperr.Validation("invalid_holiday_type", "type must be one of NATIONAL, REGIONAL, COMPANY")
}

type Holiday struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Date        time.Time `json:"date" bson:"date"`
	Category    Category  `json:"type" bson:"type"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedBy   string    `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

type CreateInput struct {
	Name        string
	Date        time.Time
	Category    Category
	Description string
}

const (
	MaxNameLength        = 100
	MaxDescriptionLength = 300
)

// Day truncates t to its civil date at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Set is a lookup of holiday dates, keyed by Day.
type Set map[time.Time]string

func (s Set) IsHoliday(t time.Time) bool {
	_, ok := s[Day(t)]
	return ok
}

func NewSet(list []Holiday) Set {
	out := make(Set, len(list))
	for _, h := range list {
		out[Day(h.Date)] = h.Name
	}
	return out
}
