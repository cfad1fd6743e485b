package histogram

import "testing"

func TestRecordAndBin(t *testing.T) {
	h := New(0, 10, 5)
	if got := h.Bin(2.5); got != 1 {
		t.Fatalf("Bin(2.5) = %d, want 1", got)
	}
	if got := h.Record(2.5); got != 1 {
		t.Fatalf("Record(2.5) = %d, want 1", got)
	}
	if got := h.Count(1); got != 1 {
		t.Fatalf("Count(1) = %d, want 1", got)
	}
}

func TestRecordOutOfRange(t *testing.T) {
	h := New(0, 10, 5)
	if got := h.Record(-1); got != OutOfRange {
		t.Fatalf("Record(-1) = %d, want OutOfRange", got)
	}
	if h.LowerOutlierCount() != 1 {
		t.Fatalf("LowerOutlierCount() = %d, want 1", h.LowerOutlierCount())
	}
	if got := h.Record(10); got != OutOfRange {
		t.Fatalf("Record(10) = %d, want OutOfRange", got)
	}
	if h.UpperOutlierCount() != 1 {
		t.Fatalf("UpperOutlierCount() = %d, want 1", h.UpperOutlierCount())
	}
}

func TestFlatness(t *testing.T) {
	h := New(0, 4, 4)
	for i := 0; i < 4; i++ {
		h.Record(float64(i))
	}
	if got := h.Flatness(); got != 1.0 {
		t.Fatalf("Flatness() = %v, want 1.0 for a uniform histogram", got)
	}
	h.Record(0)
	if got := h.Flatness(); got >= 1.0 {
		t.Fatalf("Flatness() = %v, want < 1.0 after skewing one bin", got)
	}
}

func TestResetCounts(t *testing.T) {
	h := New(0, 10, 5)
	h.Record(1)
	h.UpdateValue(0, 3.5)
	h.ResetCounts()
	if h.Count(0) != 0 {
		t.Fatalf("Count(0) = %d after ResetCounts, want 0", h.Count(0))
	}
	if h.Value(0) != 3.5 {
		t.Fatalf("Value(0) = %v after ResetCounts, want 3.5 (unchanged)", h.Value(0))
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	h := New(0, 10, 5)
	h.Record(1)
	h.Record(7)
	h.UpdateValue(0, 2.0)
	h.UpdateValue(3, -1.0)

	decoded := Decode(h.Encode())
	if decoded.BinCount() != h.BinCount() {
		t.Fatalf("BinCount mismatch after round-trip: %d vs %d", decoded.BinCount(), h.BinCount())
	}
	for i := 0; i < h.BinCount(); i++ {
		if decoded.Count(i) != h.Count(i) {
			t.Fatalf("Count(%d) mismatch: %d vs %d", i, decoded.Count(i), h.Count(i))
		}
		if decoded.Value(i) != h.Value(i) {
			t.Fatalf("Value(%d) mismatch: %v vs %v", i, decoded.Value(i), h.Value(i))
		}
	}
}
