package boost

import "testing"

func TestChecksumDeterministic(t *testing.T) {
	a := Checksum(12345, 67890)
	b := Checksum(12345, 67890)
	if a != b {
		t.Fatalf("checksum not deterministic: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

func TestChecksumBindsEntity(t *testing.T) {
	if Checksum(12345, 67890) == Checksum(12345, 67891) {
		t.Fatal("checksum must change with the entity guid")
	}
	if Checksum(12345, 67890) == Checksum(12346, 67890) {
		t.Fatal("checksum must change with the boost guid")
	}
}
