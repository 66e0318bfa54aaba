package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/zhouzirui/peoplemap/backend/internal/model/person"
	"github.com/zhouzirui/peoplemap/backend/pkg/apperr"
)

// OtherOrganization is the form sentinel that defers to NewOrganization.
const OtherOrganization = "other"

// Service answers directory queries against a fresh snapshot per call.
type Service struct {
	source person.Source
	logger *zap.Logger
}

// NewService wires the directory service to its tabular source.
func NewService(source person.Source, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, logger: logger}
}

// SearchQuery holds the free-text and organization filters.
type SearchQuery struct {
	Text         string
	Organization string
}

// NearbyQuery describes a proximity query.
type NearbyQuery struct {
	Latitude     float64
	Longitude    float64
	RadiusKm     float64
	Organization string
}

// Submission is a new directory entry posted from the form.
type Submission struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Organization    string `json:"organization"`
	NewOrganization string `json:"new_organization"`
	PhotoURL        string `json:"photo_url"`
	Phone           string `json:"phone"`
	Role            string `json:"role"`
	Latitude        any    `json:"latitude"`
	Longitude       any    `json:"longitude"`
}

func (s *Service) snapshot(ctx context.Context) ([]person.Person, error) {
	people, err := s.source.Fetch(ctx)
	if err != nil {
		return nil, apperr.Upstream("fetch directory", err)
	}
	s.logger.Debug("directory snapshot fetched", zap.Int("records", len(people)))
	return people, nil
}

// Organizations lists distinct organization names.
func (s *Service) Organizations(ctx context.Context) ([]string, error) {
	people, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Organizations(people), nil
}

// Search applies the organization filter, then the text filter.
func (s *Service) Search(ctx context.Context, q SearchQuery) ([]person.Person, error) {
	people, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	results := FilterByOrganization(people, q.Organization)
	results = FilterByText(results, q.Text)

	s.logger.Info("search completed",
		zap.String("q", q.Text),
		zap.String("organization", q.Organization),
		zap.Int("total", len(people)),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// Nearby returns located people within the query radius, nearest first.
func (s *Service) Nearby(ctx context.Context, q NearbyQuery) ([]person.Nearby, error) {
	people, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	people = FilterByOrganization(people, q.Organization)
	results := WithinRadius(people, q.Latitude, q.Longitude, q.RadiusKm)

	s.logger.Info("nearby search completed",
		zap.Float64("lat", q.Latitude),
		zap.Float64("lon", q.Longitude),
		zap.Float64("radius_km", q.RadiusKm),
		zap.String("organization", q.Organization),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// ProfileExists reports whether any entry has email, ignoring case.
func (s *Service) ProfileExists(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, apperr.Required("email")
	}

	people, err := s.snapshot(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range people {
		if strings.EqualFold(strings.TrimSpace(p.Email), email) {
			return true, nil
		}
	}
	return false, nil
}

// Submit validates sub and appends it as the next row. The new row id is the
// number of rows already in the source.
func (s *Service) Submit(ctx context.Context, sub Submission) (string, error) {
	row, err := buildRow(sub)
	if err != nil {
		return "", err
	}

	count, err := s.source.Count(ctx)
	if err != nil {
		return "", apperr.Upstream("count directory rows", err)
	}

	id := strconv.Itoa(count)
	row[person.ColID] = id

	if err := s.source.Append(ctx, row); err != nil {
		return "", apperr.Upstream("append directory row", err)
	}

	s.logger.Info("directory entry added", zap.String("id", id), zap.String("organization", row[person.ColOrganization]))
	return id, nil
}

func buildRow(sub Submission) (person.Row, error) {
	required := []struct {
		field string
		value string
	}{
		{"name", sub.Name},
		{"email", sub.Email},
		{"organization", sub.Organization},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, apperr.Required(r.field)
		}
	}

	organization := sub.Organization
	if organization == OtherOrganization {
		if strings.TrimSpace(sub.NewOrganization) == "" {
			return nil, apperr.Required("new_organization")
		}
		organization = strings.TrimSpace(sub.NewOrganization)
	}

	lat, err := formatCoordinate("latitude", sub.Latitude)
	if err != nil {
		return nil, err
	}
	lon, err := formatCoordinate("longitude", sub.Longitude)
	if err != nil {
		return nil, err
	}

	row := make(person.Row, person.ColumnCount)
	row[person.ColName] = sub.Name
	row[person.ColPhotoURL] = sub.PhotoURL
	row[person.ColPhone] = sub.Phone
	row[person.ColEmail] = sub.Email
	row[person.ColLatitude] = lat
	row[person.ColLongitude] = lon
	row[person.ColOrganization] = organization
	row[person.ColRole] = sub.Role
	return row, nil
}

// formatCoordinate accepts a JSON number or numeric string and renders it as
// the sheet cell text. Absent values become an empty cell.
func formatCoordinate(field string, raw any) (string, error) {
	var text string
	switch v := raw.(type) {
	case nil:
		return "", nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case json.Number:
		text = v.String()
	case string:
		text = strings.TrimSpace(v)
		if text == "" {
			return "", nil
		}
	default:
		return "", apperr.Input(field, fmt.Sprintf("%s must be a number", field))
	}

	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return "", apperr.Input(field, fmt.Sprintf("%s must be a number", field))
	}
	return text, nil
}
