package chat

import "strings"

// RoomID derives the relay room shared by two participants. The pair is
// sorted so either participant computes the same id.
func RoomID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return strings.Join([]string{a, b}, ":")
}
