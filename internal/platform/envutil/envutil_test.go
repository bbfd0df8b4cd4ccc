package envutil

import "testing"

func TestString(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_S", "  value ")
	if got := String("ENVUTIL_TEST_S", "def", nil); got != "value" {
		t.Fatalf("got %q", got)
	}
	t.Setenv("ENVUTIL_TEST_S", "   ")
	if got := String("ENVUTIL_TEST_S", "def", nil); got != "def" {
		t.Fatalf("blank should use default, got %q", got)
	}
}

func TestInt(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_I", "42")
	if got := Int("ENVUTIL_TEST_I", 1); got != 42 {
		t.Fatalf("got %d", got)
	}
	t.Setenv("ENVUTIL_TEST_I", "forty")
	if got := Int("ENVUTIL_TEST_I", 1); got != 1 {
		t.Fatalf("invalid int should use default, got %d", got)
	}
}

func TestBool(t *testing.T) {
	for raw, want := range map[string]bool{"yes": true, "ON": true, "0": false, "off": false} {
		t.Setenv("ENVUTIL_TEST_B", raw)
		if got := Bool("ENVUTIL_TEST_B", !want); got != want {
			t.Fatalf("Bool(%q) = %v", raw, got)
		}
	}
	t.Setenv("ENVUTIL_TEST_B", "maybe")
	if !Bool("ENVUTIL_TEST_B", true) {
		t.Fatalf("unknown value should use default")
	}
}
