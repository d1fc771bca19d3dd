package helmcli

import "testing"

func TestSetDottedPathNested(t *testing.T) {
	dest := map[string]interface{}{}
	if err := setDottedPath(dest, "controller.resources.limits.cpu", "500m"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	controller, ok := dest["controller"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected controller map, got %#v", dest["controller"])
	}
	resources, ok := controller["resources"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected resources map, got %#v", controller["resources"])
	}
	limits, ok := resources["limits"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected limits map, got %#v", resources["limits"])
	}
	if limits["cpu"] != "500m" {
		t.Fatalf("expected cpu=500m, got %v", limits["cpu"])
	}
}

func TestSplitDottedPathEscaped(t *testing.T) {
	got := splitDottedPath(`annotations.external-dns\.alpha\.kubernetes\.io/hostname`)
	want := []string{"annotations", "external-dns.alpha.kubernetes.io/hostname"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
