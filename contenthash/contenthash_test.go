package contenthash

import (
	"errors"
	"testing"
)

const helloHex = "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d"

func TestSum_KnownVector(t *testing.T) {
	h, err := Sum([]byte("hello"))
	if err != nil {
		t.Fatalf("Sum failed: %v", err)
	}
	if h.Hex() != helloHex {
		t.Fatalf("Sum(hello): got %s want %s", h.Hex(), helloHex)
	}
}

func TestFromHex_RoundTrip(t *testing.T) {
	h, err := FromHex(helloHex)
	if err != nil {
		t.Fatalf("FromHex failed: %v", err)
	}
	if h.Hex() != helloHex {
		t.Fatalf("hex round trip: got %s", h.Hex())
	}
	if h.String() != helloHex {
		t.Fatalf("String must equal Hex")
	}

	if _, err := FromHex("abcd"); err == nil {
		t.Fatalf("FromHex must reject short input")
	}
	if _, err := FromBytes(make([]byte, 19)); err == nil {
		t.Fatalf("FromBytes must reject wrong length")
	}
}

func TestVerify(t *testing.T) {
	h, err := Sum([]byte("hello"))
	if err != nil {
		t.Fatalf("Sum failed: %v", err)
	}
	if err := Verify([]byte("hello"), h); err != nil {
		t.Fatalf("Verify failed on matching payload: %v", err)
	}
	err = Verify([]byte("hellx"), h)
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("Verify on tampered payload: got %v want ErrMismatch", err)
	}
}

func TestCID(t *testing.T) {
	h, err := Sum([]byte("hello"))
	if err != nil {
		t.Fatalf("Sum failed: %v", err)
	}

	id, err := h.CID()
	if err != nil {
		t.Fatalf("CID failed: %v", err)
	}
	if !id.Defined() {
		t.Fatalf("CID is undefined")
	}

	// SumCID must agree with Sum followed by CID.
	id2, err := SumCID([]byte("hello"))
	if err != nil {
		t.Fatalf("SumCID failed: %v", err)
	}
	if id != id2 {
		t.Fatalf("CID mismatch: %s vs %s", id, id2)
	}

	other, err := SumCID([]byte("other"))
	if err != nil {
		t.Fatalf("SumCID failed: %v", err)
	}
	if other == id {
		t.Fatalf("distinct payloads produced the same CID")
	}
}
