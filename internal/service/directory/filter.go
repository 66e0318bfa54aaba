package directory

import (
	"sort"
	"strings"

	"github.com/zhouzirui/peoplemap/backend/internal/geo"
	"github.com/zhouzirui/peoplemap/backend/internal/model/person"
)

// DefaultRadiusKm applies when a proximity query omits the radius.
const DefaultRadiusKm = 10.0

// FilterByOrganization keeps people whose organization equals org, ignoring
// case. An empty org keeps everyone.
func FilterByOrganization(people []person.Person, org string) []person.Person {
	org = strings.TrimSpace(org)
	if org == "" {
		return people
	}

	out := make([]person.Person, 0, len(people))
	for _, p := range people {
		if p.Organization != "" && strings.EqualFold(p.Organization, org) {
			out = append(out, p)
		}
	}
	return out
}

// FilterByText keeps people whose name, organization, role or email contains
// query, ignoring case. An empty query keeps everyone.
func FilterByText(people []person.Person, query string) []person.Person {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return people
	}

	out := make([]person.Person, 0, len(people))
	for _, p := range people {
		if matchesText(p, q) {
			out = append(out, p)
		}
	}
	return out
}

func matchesText(p person.Person, q string) bool {
	for _, field := range []string{p.Name, p.Organization, p.Role, p.Email} {
		if field != "" && strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// WithinRadius annotates every located person with its distance from
// (lat, lon) and keeps those no further than radiusKm, nearest first.
// People without both coordinates are skipped.
func WithinRadius(people []person.Person, lat, lon, radiusKm float64) []person.Nearby {
	out := make([]person.Nearby, 0)
	for _, p := range people {
		if !p.HasLocation() {
			continue
		}
		dist := geo.Haversine(lat, lon, *p.Latitude, *p.Longitude)
		if dist <= radiusKm {
			out = append(out, person.Nearby{Person: p, DistanceKm: geo.Round2(dist)})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}

// Organizations returns the distinct non-empty organization names, sorted.
func Organizations(people []person.Person) []string {
	seen := make(map[string]struct{}, len(people))
	out := make([]string, 0)
	for _, p := range people {
		if p.Organization == "" {
			continue
		}
		if _, ok := seen[p.Organization]; ok {
			continue
		}
		seen[p.Organization] = struct{}{}
		out = append(out, p.Organization)
	}
	sort.Strings(out)
	return out
}
