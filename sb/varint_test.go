package sb_test

import (
	"bytes"
	"testing"

	"xdao.co/sbkit/sb"
)

// Varint nodes exercise the shared varint reader directly: typecode 0x03
// followed by the encoded value.
func TestVarint_Boundaries(t *testing.T) {
	cases := []struct {
		value uint64
		wire  []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{16383, []byte{0xff, 0x7f}},
		{16384, []byte{0x80, 0x80, 0x01}},
		{^uint64(0), []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}},
	}

	for _, tc := range cases {
		buf := append([]byte{0x03}, tc.wire...)

		n, err := sb.Decode(buf)
		if err != nil {
			t.Fatalf("Decode(%d) failed: %v", tc.value, err)
		}
		if n.Kind != sb.KindVarInt || n.Uint != tc.value {
			t.Fatalf("Decode(% x): got %s %d, want VarInt %d", buf, n.Kind, n.Uint, tc.value)
		}

		out, err := sb.Encode(n)
		if err != nil {
			t.Fatalf("Encode(%d) failed: %v", tc.value, err)
		}
		if !bytes.Equal(out, buf) {
			t.Fatalf("Encode(%d): got % x, want % x", tc.value, out, buf)
		}
	}
}

func TestVarint_Overflow(t *testing.T) {
	// 11 continuation bytes push past 64 bits.
	buf := []byte{0x03, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}
	_, err := sb.Decode(buf)
	if !sb.IsKind(err, sb.KindMalformed) {
		t.Fatalf("expected Malformed, got %v", err)
	}
	if got := sb.RuleID(err); got != "SB-VAR-001" {
		t.Fatalf("RuleID: got %q want SB-VAR-001", got)
	}
}

func TestVarint_Truncated(t *testing.T) {
	_, err := sb.Decode([]byte{0x03, 0x80})
	if !sb.IsKind(err, sb.KindMalformed) {
		t.Fatalf("expected Malformed, got %v", err)
	}
}
