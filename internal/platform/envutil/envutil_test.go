package envutil

import (
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("CIVIC_TEST_INT", "nope")
	if got := Int("CIVIC_TEST_INT", 7); got != 7 {
		t.Fatalf("want 7, got %d", got)
	}
	t.Setenv("CIVIC_TEST_INT", " 42 ")
	if got := Int("CIVIC_TEST_INT", 7); got != 42 {
		t.Fatalf("want 42, got %d", got)
	}
}

func TestBool(t *testing.T) {
	cases := []struct {
		raw  string
		def  bool
		want bool
	}{
		{"", true, true},
		{"off", true, false},
		{"YES", false, true},
		{"maybe", false, false},
	}
	for _, tc := range cases {
		t.Setenv("CIVIC_TEST_BOOL", tc.raw)
		if got := Bool("CIVIC_TEST_BOOL", tc.def); got != tc.want {
			t.Fatalf("Bool(%q, %v) = %v, want %v", tc.raw, tc.def, got, tc.want)
		}
	}
}

func TestSeconds(t *testing.T) {
	t.Setenv("CIVIC_TEST_TTL", "-3")
	if got := Seconds("CIVIC_TEST_TTL", time.Minute); got != time.Minute {
		t.Fatalf("want fallback, got %v", got)
	}
	t.Setenv("CIVIC_TEST_TTL", "90")
	if got := Seconds("CIVIC_TEST_TTL", time.Minute); got != 90*time.Second {
		t.Fatalf("want 90s, got %v", got)
	}
}

func TestList(t *testing.T) {
	t.Setenv("CIVIC_TEST_LIST", " a, ,b ,")
	got := List("CIVIC_TEST_LIST", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected list: %#v", got)
	}
}
