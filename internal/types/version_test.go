package types

import "testing"

func TestVersionLadderSymmetry(t *testing.T) {
	for _, m := range SupportedMinors {
		v := KubernetesVersion{Minor: m}
		if next, ok := v.NextVersion(); ok {
			back, ok := next.PreviousVersion()
			if !ok || back.Minor != v.Minor {
				t.Fatalf("minor %d: next().previous() did not round-trip, got %+v", m, back)
			}
		}
		if prev, ok := v.PreviousVersion(); ok {
			fwd, ok := prev.NextVersion()
			if !ok || fwd.Minor != v.Minor {
				t.Fatalf("minor %d: previous().next() did not round-trip, got %+v", m, fwd)
			}
		}
	}
}

func TestVersionLadderEdges(t *testing.T) {
	lowest := KubernetesVersion{Minor: SupportedMinors[0]}
	if _, ok := lowest.PreviousVersion(); ok {
		t.Fatalf("lowest supported minor must have no previous version")
	}
	highest := KubernetesVersion{Minor: SupportedMinors[len(SupportedMinors)-1]}
	if _, ok := highest.NextVersion(); ok {
		t.Fatalf("highest supported minor must have no next version")
	}
}

func TestCompareKubernetesVersionsForUpgrade(t *testing.T) {
	cases := []struct {
		name             string
		deployed, wished VersionsNumber
		wantUpgrade      bool
		wantOlder        bool
	}{
		{"minor bump", VersionsNumber{Major: 1, Minor: 28}, VersionsNumber{Major: 1, Minor: 29}, true, false},
		{"same version", VersionsNumber{Major: 1, Minor: 29}, VersionsNumber{Major: 1, Minor: 29}, false, false},
		{"older wished", VersionsNumber{Major: 1, Minor: 29}, VersionsNumber{Major: 1, Minor: 28}, false, true},
		{"major bump", VersionsNumber{Major: 1, Minor: 33}, VersionsNumber{Major: 2, Minor: 0}, true, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := CompareKubernetesVersionsForUpgrade(c.deployed, c.wished)
			if got.UpgradeRequired != c.wantUpgrade || got.OlderVersionDetected != c.wantOlder {
				t.Fatalf("got %+v, want upgrade=%v older=%v", got, c.wantUpgrade, c.wantOlder)
			}
			if got.UpgradeRequired && got.OlderVersionDetected {
				t.Fatalf("upgrade_required and older_version_detected must be mutually exclusive")
			}
		})
	}
}

func TestParseVersionsNumber(t *testing.T) {
	v, err := ParseVersionsNumber("v1.29.4+k3s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Major != 1 || v.Minor != 29 || v.Patch == nil || *v.Patch != 4 || v.Suffix != "+k3s1" {
		t.Fatalf("unexpected parse result: %+v", v)
	}
}

func TestNodeGroupsSetDesiredNodesClamps(t *testing.T) {
	ng := NodeGroups{MinNodes: 3, MaxNodes: 10}
	ng.SetDesiredNodes(50)
	if *ng.DesiredNodes != 10 {
		t.Fatalf("expected clamp to max, got %d", *ng.DesiredNodes)
	}
	ng.SetDesiredNodes(1)
	if *ng.DesiredNodes != 3 {
		t.Fatalf("expected clamp to min, got %d", *ng.DesiredNodes)
	}
	ng.SetDesiredNodes(7)
	if *ng.DesiredNodes != 7 {
		t.Fatalf("expected in-range value preserved, got %d", *ng.DesiredNodes)
	}
}

func TestConvertK8sCPUValueToF32(t *testing.T) {
	cases := map[string]float32{"250m": 0.25, "2": 2.0, "1500m": 1.5}
	for in, want := range cases {
		got, err := ConvertK8sCPUValueToF32(in)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("ConvertK8sCPUValueToF32(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ConvertK8sCPUValueToF32("not-a-cpu"); err == nil {
		t.Fatalf("expected error for malformed cpu value")
	}
}

func TestValidateK8sRequiredCPUAndBurstable(t *testing.T) {
	got, err := ValidateK8sRequiredCPUAndBurstable("500m", "250m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Limit != "500m" {
		t.Fatalf("expected limit bumped up to request, got %q", got.Limit)
	}

	got, err = ValidateK8sRequiredCPUAndBurstable("250m", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Limit != "1" {
		t.Fatalf("expected limit left untouched when already >= request, got %q", got.Limit)
	}
}
