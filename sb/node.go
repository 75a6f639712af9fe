package sb

import (
	"bytes"

	"xdao.co/sbkit/contenthash"
)

// Kind identifies a node's variant. The set is closed: the typecode space
// of the wire format is fixed and small, and anything outside it is a
// decode error rather than an extension point.
type Kind uint8

const (
	KindNil Kind = iota
	KindList
	KindDict
	KindBool
	KindString
	KindBlob
	KindInt32
	KindInt64
	KindUUID
	KindSHA1
	KindVarInt
	KindUnknown8
)

var kindNames = [...]string{
	KindNil:      "Nil",
	KindList:     "List",
	KindDict:     "Dict",
	KindBool:     "Bool",
	KindString:   "String",
	KindBlob:     "Blob",
	KindInt32:    "Int32",
	KindInt64:    "Int64",
	KindUUID:     "UUID",
	KindSHA1:     "SHA1",
	KindVarInt:   "VarInt",
	KindUnknown8: "Unknown8",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// Wire typecodes. The leading byte of every node carries the typecode in
// its low 5 bits and three flag bits in the high 3.
const (
	typeNil      = 0x00
	typeList     = 0x01
	typeDict     = 0x02
	typeVarInt   = 0x03
	typeUnknown8 = 0x05
	typeBool     = 0x06
	typeString   = 0x07
	typeInt32    = 0x08
	typeInt64    = 0x09
	typeUUID     = 0x0f
	typeSHA1     = 0x10
	typeBlob     = 0x13

	typecodeMask = 0x1f
	flagShift    = 5
)

// Entry is one dictionary entry. Entry order is read order and is
// semantically significant; dictionaries are never sorted.
type Entry struct {
	Key   *Node
	Value *Node
}

// Node is one decoded value. Exactly the fields relevant to Kind are set;
// the rest stay zero. A List or Dict node exclusively owns its children and
// the tree is acyclic.
//
// Flags holds the high 3 bits of the node's leading byte. They are
// preserved for re-encoding but never interpreted.
type Node struct {
	Kind  Kind
	Flags uint8

	Bool     bool
	Int      int64  // Int32, Int64
	Uint     uint64 // VarInt
	Bytes    []byte // String (terminator stripped), Blob
	UUID     [16]byte
	SHA1     contenthash.Hash
	Unknown8 [8]byte

	Children []*Node // List
	Entries  []Entry // Dict
}

// Get returns the value of the first dict entry whose key is a String node
// equal to key, or nil. Non-dict nodes and non-string keys yield nil.
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != KindDict {
		return nil
	}
	for _, e := range n.Entries {
		if e.Key != nil && e.Key.Kind == KindString && string(e.Key.Bytes) == key {
			return e.Value
		}
	}
	return nil
}

// Walk visits n and every node below it in read order. Dict keys are
// visited before their values.
func (n *Node) Walk(visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	for _, c := range n.Children {
		c.Walk(visit)
	}
	for _, e := range n.Entries {
		e.Key.Walk(visit)
		e.Value.Walk(visit)
	}
}

// SHA1Refs collects every SHA1 node below n in read order, duplicates
// included.
func (n *Node) SHA1Refs() []contenthash.Hash {
	var refs []contenthash.Hash
	n.Walk(func(m *Node) {
		if m.Kind == KindSHA1 {
			refs = append(refs, m.SHA1)
		}
	})
	return refs
}

// Equal reports structural equality of two trees, flags included.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Flags != b.Flags {
		return false
	}
	switch a.Kind {
	case KindNil:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindInt32, KindInt64:
		return a.Int == b.Int
	case KindVarInt:
		return a.Uint == b.Uint
	case KindString, KindBlob:
		return bytes.Equal(a.Bytes, b.Bytes)
	case KindUUID:
		return a.UUID == b.UUID
	case KindSHA1:
		return a.SHA1 == b.SHA1
	case KindUnknown8:
		return a.Unknown8 == b.Unknown8
	case KindList:
		if len(a.Children) != len(b.Children) {
			return false
		}
		for i := range a.Children {
			if !Equal(a.Children[i], b.Children[i]) {
				return false
			}
		}
		return true
	case KindDict:
		if len(a.Entries) != len(b.Entries) {
			return false
		}
		for i := range a.Entries {
			if !Equal(a.Entries[i].Key, b.Entries[i].Key) {
				return false
			}
			if !Equal(a.Entries[i].Value, b.Entries[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}
