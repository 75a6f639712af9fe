package sb_test

import (
	"errors"
	"fmt"
	"testing"

	"xdao.co/sbkit/sb"
)

// Error categories and node kinds are separate types living in the same
// package; this pins down that both surfaces work side by side on a real
// decode failure.
func TestErrorKindAndNodeKind(t *testing.T) {
	n, err := sb.Decode([]byte{0x06, 0x01})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if n.Kind != sb.KindBool {
		t.Fatalf("node kind: got %s want %s", n.Kind, sb.KindBool)
	}

	_, err = sb.Decode([]byte{0x1f})
	if !sb.IsKind(err, sb.KindMalformed) {
		t.Fatalf("IsKind(Malformed): got %v", err)
	}
	if sb.IsKind(err, sb.KindIO) {
		t.Fatalf("IsKind matched the wrong category")
	}
}

func TestIsKind_Wrapped(t *testing.T) {
	_, inner := sb.Decode([]byte{0x1f})
	wrapped := fmt.Errorf("load toc: %w", inner)

	if !sb.IsKind(wrapped, sb.KindMalformed) {
		t.Fatalf("IsKind did not unwrap")
	}
	if got := sb.RuleID(wrapped); got != "SB-DEC-001" {
		t.Fatalf("RuleID: got %q want SB-DEC-001", got)
	}
}

func TestIsKind_Unstructured(t *testing.T) {
	err := errors.New("plain")
	if sb.IsKind(err, sb.KindMalformed) || sb.IsKind(err, sb.KindIO) {
		t.Fatalf("IsKind matched an unstructured error")
	}
	if got := sb.RuleID(err); got != "" {
		t.Fatalf("RuleID: got %q want empty", got)
	}
	if sb.IsKind(nil, sb.KindMalformed) {
		t.Fatalf("IsKind(nil) = true")
	}
}

func TestError_OffsetFormatting(t *testing.T) {
	with := &sb.Error{Kind: sb.KindMalformed, RuleID: "SB-DEC-002", Message: "truncated", Offset: 12}
	if got := with.Error(); got != "truncated (at offset 12)" {
		t.Fatalf("Error(): got %q", got)
	}

	without := &sb.Error{Kind: sb.KindIO, RuleID: "CAS-003", Message: "read payload", Offset: -1}
	if got := without.Error(); got != "read payload" {
		t.Fatalf("Error(): got %q", got)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("disk gone")
	err := &sb.Error{Kind: sb.KindIO, RuleID: "CAS-003", Message: "read", Offset: -1, Cause: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is did not reach the cause")
	}
}
