package internaldefs

import "testing"

func TestHistogramBounds(t *testing.T) {
	want := []string{"0.05", "0.1", "0.25", "0.5", "1", "2.5", "5", "+Inf"}
	if len(HistogramBounds) != len(want) {
		t.Fatalf("expected %d bounds, got %v", len(want), HistogramBounds)
	}
	for i := range want {
		if HistogramBounds[i] != want[i] {
			t.Fatalf("bound %d: expected %s, got %s", i, want[i], HistogramBounds[i])
		}
	}
	if HistogramBoundSuffix[0] != "0_05" || HistogramBoundSuffix[BucketCount-1] != "inf" {
		t.Fatalf("unexpected suffixes %v", HistogramBoundSuffix)
	}
}

func TestCounterNamesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, def := range CounterDefs {
		if seen[def.Name] {
			t.Fatalf("duplicate counter %s", def.Name)
		}
		seen[def.Name] = true
	}
	if !seen["goadmin_login_otp_required_total"] {
		t.Fatal("expected prefixed counter names")
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 3}))
	if got[2] != 6 || got[BucketCount-1] != 6 {
		t.Fatalf("unexpected cumulative buckets %v", got)
	}
}
