package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Bus    Category = "Bus"
	Petrol Category = "Petrol"
	Food   Category = "Food"
	Others Category = "Others"
)

// DateLayout is the storage and comparison format of Expense.Date.
const DateLayout = "2006-01-02"

type (
	// Category is kept as a plain string so unknown values read from the
	// store survive filtering and search untouched.
	Category string

	// Numeric holds the lexical form of a numeric field as it came from the
	// store. Read it through Float so malformed values count as zero.
	Numeric string

	// Expense is one flat record; category-specific fields are simply left
	// empty for the categories that do not use them.
	Expense struct {
		ID        string    `json:"id"`
		Date      string    `json:"date"`
		Time      string    `json:"time,omitempty"`
		Category  Category  `json:"category"`
		Total     Numeric   `json:"total"`
		Claimed   bool      `json:"claimed"`
		Km        Numeric   `json:"km,omitempty"`
		Count     Numeric   `json:"count,omitempty"`
		Persons   Numeric   `json:"persons,omitempty"`
		Price     Numeric   `json:"price,omitempty"`
		FromPlace string    `json:"from_place,omitempty"`
		ToPlace   string    `json:"to_place,omitempty"`
		ItemName  string    `json:"item_name,omitempty"`
		BillURL   string    `json:"bill_url,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}
)

// Categories lists the known categories in chart order.
var Categories = []Category{Bus, Petrol, Food, Others}

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidTime     = errors.New("invalid time")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrMissingField    = errors.New("missing required field")
)

// IsKnown reports whether c is one of the four tracked categories.
func (c Category) IsKnown() bool {
	switch c {
	case Bus, Petrol, Food, Others:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// Float returns the coerced value, zero when absent or malformed.
func (n Numeric) Float() float64 {
	return ToNumber(string(n))
}

// IsEmpty reports whether no value was supplied at all.
func (n Numeric) IsEmpty() bool {
	return strings.TrimSpace(string(n)) == ""
}

// NumericFromFloat formats f with the shortest exact representation.
func NumericFromFloat(f float64) Numeric {
	return Numeric(strconv.FormatFloat(f, 'f', -1, 64))
}

// UnmarshalJSON accepts JSON numbers, strings and null.
func (n *Numeric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*n = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Numeric(s)
	default:
		*n = Numeric(data)
	}
	return nil
}

// MarshalJSON writes well-formed numbers as JSON numbers and anything else
// as a string, so malformed input round-trips unchanged.
func (n Numeric) MarshalJSON() ([]byte, error) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return []byte("null"), nil
	}
	if (s[0] == '-' || (s[0] >= '0' && s[0] <= '9')) && json.Valid([]byte(s)) {
		return []byte(s), nil
	}
	return json.Marshal(string(n))
}

// NewID returns a fresh expense identifier.
func NewID() string {
	return uuid.NewString()
}

// ParseDate parses an Expense.Date value.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// Validate checks a record about to be created. Category-specific fields
// mirror the entry form; price may be omitted when a total is supplied.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.Date) == "" {
		return fmt.Errorf("%w: date", ErrMissingField)
	}
	if _, err := ParseDate(e.Date); err != nil {
		return err
	}
	if t := strings.TrimSpace(e.Time); t != "" && !validTime(t) {
		return fmt.Errorf("%w: %q", ErrInvalidTime, e.Time)
	}
	if strings.TrimSpace(string(e.Category)) == "" {
		return fmt.Errorf("%w: category", ErrMissingField)
	}
	if !e.Category.IsKnown() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, e.Category)
	}

	required := map[string]bool{}
	switch e.Category {
	case Bus:
		required["from_place"] = e.FromPlace != ""
		required["to_place"] = e.ToPlace != ""
		required["count"] = !e.Count.IsEmpty()
	case Petrol:
		required["from_place"] = e.FromPlace != ""
		required["to_place"] = e.ToPlace != ""
		required["km"] = !e.Km.IsEmpty()
	case Food:
		required["persons"] = !e.Persons.IsEmpty()
	case Others:
		required["item_name"] = strings.TrimSpace(e.ItemName) != ""
	}
	if e.Total.IsEmpty() {
		required["price"] = !e.Price.IsEmpty()
	}
	for _, field := range []string{"from_place", "to_place", "count", "km", "persons", "item_name", "price"} {
		if present, ok := required[field]; ok && !present {
			return fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}

	if !e.Total.IsEmpty() && e.Total.Float() < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func validTime(s string) bool {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
