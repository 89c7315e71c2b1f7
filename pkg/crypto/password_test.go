package crypto

import "testing"

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := NewPasswordHasher(4, nil)

	hash, err := h.Hash("s3cret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(hash) == "s3cret" {
		t.Fatal("credential must not be stored in plain text")
	}

	if !h.Verify(hash, "s3cret") {
		t.Error("expected matching credential to verify")
	}
	if h.Verify(hash, "wrong") {
		t.Error("expected mismatched credential to fail")
	}
}

func TestPasswordHasher_DistinctHashesPerCall(t *testing.T) {
	h := NewPasswordHasher(4, nil)

	first, _ := h.Hash("s3cret")
	second, _ := h.Hash("s3cret")

	if string(first) == string(second) {
		t.Error("expected salted hashes to differ between calls")
	}
}

func TestPasswordHasher_OutOfRangeCostFallsBack(t *testing.T) {
	h := NewPasswordHasher(99, nil)

	hash, err := h.Hash("s3cret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !h.Verify(hash, "s3cret") {
		t.Error("expected hash produced with fallback cost to verify")
	}
}
