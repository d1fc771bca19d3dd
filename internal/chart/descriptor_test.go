package chart

import "testing"

func TestReinstallGuardShouldForceReinstall(t *testing.T) {
	guard := ReinstallGuard{Threshold: "9.0.0"}

	cases := []struct {
		installed string
		want      bool
	}{
		{"8.4.1", true},
		{"9.0.0", false},
		{"9.1.0", false},
		{"", false},
	}
	for _, c := range cases {
		got, err := guard.ShouldForceReinstall(c.installed)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", c.installed, err)
		}
		if got != c.want {
			t.Errorf("ShouldForceReinstall(%q) = %v, want %v", c.installed, got, c.want)
		}
	}
}

func TestReinstallGuardRejectsUnparsableVersion(t *testing.T) {
	guard := ReinstallGuard{Threshold: "9.0.0"}
	if _, err := guard.ShouldForceReinstall("not-a-version"); err == nil {
		t.Fatal("expected an error for an unparsable installed version")
	}
}
