package person

import (
	"fmt"
	"strconv"
	"strings"
)

// Column layout of the directory sheet.
const (
	ColID = iota
	ColName
	ColPhotoURL
	ColPhone
	ColEmail
	ColLatitude
	ColLongitude
	ColOrganization
	ColRole

	ColumnCount
)

// Person is one directory entry exposed to the frontend.
type Person struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	PhotoURL     string   `json:"photo_url"`
	Phone        string   `json:"phone"`
	Email        string   `json:"email"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Organization string   `json:"organization"`
	Role         string   `json:"role"`
}

// HasLocation reports whether both coordinates are present.
func (p Person) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Nearby is a Person annotated with its distance from a query point.
type Nearby struct {
	Person
	DistanceKm float64 `json:"distance_km"`
}

// Row is a raw sheet row in column order.
type Row []string

// FromRow maps a raw row onto a Person. Short rows are padded; a non-numeric
// coordinate is an error so callers can skip the row.
func FromRow(row Row) (Person, error) {
	padded := make(Row, ColumnCount)
	copy(padded, row)

	lat, err := parseCoordinate(padded[ColLatitude])
	if err != nil {
		return Person{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := parseCoordinate(padded[ColLongitude])
	if err != nil {
		return Person{}, fmt.Errorf("longitude: %w", err)
	}

	return Person{
		ID:           padded[ColID],
		Name:         padded[ColName],
		PhotoURL:     padded[ColPhotoURL],
		Phone:        padded[ColPhone],
		Email:        padded[ColEmail],
		Latitude:     lat,
		Longitude:    lon,
		Organization: padded[ColOrganization],
		Role:         padded[ColRole],
	}, nil
}

func parseCoordinate(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &val, nil
}
