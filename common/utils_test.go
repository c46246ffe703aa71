package common

import "testing"

func TestCoalesce(t *testing.T) {
	if got := Coalesce("", "flag", "file"); got != "flag" {
		t.Fatalf("Coalesce = %q", got)
	}
	if got := Coalesce(0, 0); got != 0 {
		t.Fatalf("Coalesce of zeros = %d", got)
	}
}
