package chat

import (
	"testing"
	"time"
)

func TestRoomIDOrderIndependent(t *testing.T) {
	cases := [][2]string{
		{"1", "2"},
		{"10", "9"},
		{"alice", "bob"},
		{"same", "same"},
	}
	for _, c := range cases {
		if RoomID(c[0], c[1]) != RoomID(c[1], c[0]) {
			t.Fatalf("room id differs for %v", c)
		}
	}
	if got := RoomID("9", "10"); got != "10:9" {
		t.Fatalf("expected lexical sort, got %s", got)
	}
}

func TestNowFixedWidth(t *testing.T) {
	a := Now(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	b := Now(time.Date(2024, 1, 2, 3, 4, 5, 120000000, time.FixedZone("x", 3600)))
	if a != "2024-01-02T03:04:05.000000Z" {
		t.Fatalf("unexpected format: %s", a)
	}
	if len(a) != len(b) {
		t.Fatalf("expected fixed width, got %s and %s", a, b)
	}
	if b >= a {
		t.Fatalf("expected zone-adjusted %s to sort before %s", b, a)
	}
}
