package model

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"xdao.co/sbkit/sb"
)

// Pair is one projected dict entry. Dict order is read order and is
// semantically significant, so dicts project to pair slices, never to Go
// maps.
type Pair struct {
	Key   any
	Value any
}

// Primitive projects a decoded tree onto plain Go values:
//
//	Nil      -> nil
//	Bool     -> bool
//	Int32/64 -> int64
//	VarInt   -> uint64
//	String   -> string
//	Blob     -> []byte
//	UUID     -> [16]byte
//	SHA1     -> contenthash.Hash
//	Unknown8 -> [8]byte
//	List     -> []any
//	Dict     -> []Pair
//
// Node flags are dropped; use the tree itself when fidelity matters.
func Primitive(n *sb.Node) any {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case sb.KindNil:
		return nil
	case sb.KindBool:
		return n.Bool
	case sb.KindInt32, sb.KindInt64:
		return n.Int
	case sb.KindVarInt:
		return n.Uint
	case sb.KindString:
		return string(n.Bytes)
	case sb.KindBlob:
		return append([]byte(nil), n.Bytes...)
	case sb.KindUUID:
		return n.UUID
	case sb.KindSHA1:
		return n.SHA1
	case sb.KindUnknown8:
		return n.Unknown8
	case sb.KindList:
		out := make([]any, len(n.Children))
		for i, c := range n.Children {
			out[i] = Primitive(c)
		}
		return out
	case sb.KindDict:
		out := make([]Pair, len(n.Entries))
		for i, e := range n.Entries {
			out[i] = Pair{Key: Primitive(e.Key), Value: Primitive(e.Value)}
		}
		return out
	}
	return nil
}

// Snapshot serializes the projection of a tree as deterministic CBOR.
// Equal trees snapshot to identical bytes, which makes snapshots usable as
// fixture goldens and as content-addressable summaries.
func Snapshot(n *sb.Node) ([]byte, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("model: cbor encoder: %w", err)
	}
	return enc.Marshal(Primitive(n))
}
