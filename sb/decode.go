package sb

import (
	"encoding/binary"
	"fmt"

	"xdao.co/sbkit/contenthash"
)

// Decode reads one tree from a decrypted payload. The whole buffer must be
// consumed: trailing bytes after the root node are malformed input.
//
// Decoding is deterministic; decoding the same buffer twice yields
// structurally equal trees.
func Decode(plain []byte) (*Node, error) {
	d := &decoder{buf: plain}
	n, err := d.node()
	if err != nil {
		return nil, err
	}
	if d.off != int64(len(d.buf)) {
		return nil, errorAt(KindMalformed, "SB-DEC-007",
			fmt.Sprintf("%d trailing bytes after root node", int64(len(d.buf))-d.off), d.off)
	}
	return n, nil
}

// decoder is a forward-only cursor over an in-memory payload. It never
// seeks backward.
type decoder struct {
	buf []byte
	off int64
}

func (d *decoder) take(n int64) ([]byte, error) {
	if rem := int64(len(d.buf)) - d.off; rem < n {
		return nil, errorAt(KindMalformed, "SB-DEC-002",
			fmt.Sprintf("unexpected end of input: need %d bytes, have %d", n, rem), d.off)
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) byte() (byte, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// uvarint reads a little-endian base-128 integer: 7 payload bits per byte,
// high bit set on every byte but the last.
func (d *decoder) uvarint() (uint64, error) {
	start := d.off
	var v uint64
	var shift uint
	for {
		b, err := d.byte()
		if err != nil {
			return 0, err
		}
		if shift == 63 && b&0x7f > 1 {
			return 0, errorAt(KindMalformed, "SB-VAR-001", "varint overflows 64 bits", start)
		}
		if shift > 63 {
			return 0, errorAt(KindMalformed, "SB-VAR-001", "varint overflows 64 bits", start)
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, nil
		}
		shift += 7
	}
}

func (d *decoder) node() (*Node, error) {
	lead, err := d.byte()
	if err != nil {
		return nil, err
	}
	return d.nodeWithLead(lead)
}

// nodeWithLead decodes the payload of a node whose leading byte has
// already been consumed. The dict entry quirk depends on this split: the
// byte that would normally prefix a dict value instead prefixes the whole
// entry, so the value payload is decoded against a captured lead.
func (d *decoder) nodeWithLead(lead byte) (*Node, error) {
	flags := lead >> flagShift
	switch lead & typecodeMask {
	case typeNil:
		return &Node{Kind: KindNil, Flags: flags}, nil
	case typeList:
		return d.list(flags)
	case typeDict:
		return d.dict(flags)
	case typeVarInt:
		v, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindVarInt, Flags: flags, Uint: v}, nil
	case typeUnknown8:
		b, err := d.take(8)
		if err != nil {
			return nil, err
		}
		n := &Node{Kind: KindUnknown8, Flags: flags}
		copy(n.Unknown8[:], b)
		return n, nil
	case typeBool:
		b, err := d.byte()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindBool, Flags: flags, Bool: b != 0}, nil
	case typeString:
		return d.str(flags)
	case typeInt32:
		b, err := d.take(4)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindInt32, Flags: flags, Int: int64(int32(binary.LittleEndian.Uint32(b)))}, nil
	case typeInt64:
		b, err := d.take(8)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindInt64, Flags: flags, Int: int64(binary.LittleEndian.Uint64(b))}, nil
	case typeUUID:
		b, err := d.take(16)
		if err != nil {
			return nil, err
		}
		n := &Node{Kind: KindUUID, Flags: flags}
		copy(n.UUID[:], b)
		return n, nil
	case typeSHA1:
		b, err := d.take(contenthash.Size)
		if err != nil {
			return nil, err
		}
		h, err := contenthash.FromBytes(b)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindSHA1, Flags: flags, SHA1: h}, nil
	case typeBlob:
		size, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		b, err := d.take(int64(size))
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindBlob, Flags: flags, Bytes: append([]byte(nil), b...)}, nil
	default:
		return nil, errorAt(KindMalformed, "SB-DEC-001",
			fmt.Sprintf("unknown typecode 0x%02x (lead byte 0x%02x)", lead&typecodeMask, lead), d.off-1)
	}
}

// str reads a length-prefixed byte string. The declared length includes a
// trailing NUL terminator, which is verified and stripped.
func (d *decoder) str(flags uint8) (*Node, error) {
	size, err := d.uvarint()
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, errorAt(KindMalformed, "SB-DEC-006", "string length 0 cannot hold its terminator", d.off)
	}
	b, err := d.take(int64(size))
	if err != nil {
		return nil, err
	}
	if b[len(b)-1] != 0 {
		return nil, errorAt(KindMalformed, "SB-DEC-006",
			fmt.Sprintf("string missing NUL terminator: final byte 0x%02x", b[len(b)-1]), d.off-1)
	}
	return &Node{Kind: KindString, Flags: flags, Bytes: append([]byte(nil), b[:len(b)-1]...)}, nil
}

// Lists carry both a declared element count and a Nil terminator. Both are
// honored; if they disagree the input is malformed.
func (d *decoder) list(flags uint8) (*Node, error) {
	countOff := d.off
	count, err := d.uvarint()
	if err != nil {
		return nil, err
	}
	children := make([]*Node, 0, capHint(count))
	for {
		lead, err := d.byte()
		if err != nil {
			return nil, err
		}
		if lead&typecodeMask == typeNil {
			if uint64(len(children)) != count {
				return nil, errorAt(KindMalformed, "SB-DEC-004",
					fmt.Sprintf("list declared %d elements but terminated after %d", count, len(children)), d.off-1)
			}
			return &Node{Kind: KindList, Flags: flags, Children: children}, nil
		}
		if uint64(len(children)) == count {
			return nil, errorAt(KindMalformed, "SB-DEC-004",
				fmt.Sprintf("list declared %d elements but holds more (declared at offset %d)", count, countOff), d.off-1)
		}
		child, err := d.nodeWithLead(lead)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
}

// Dict entries are encoded as (value typecode, key, value): the entry's
// leading byte belongs to the VALUE, the key follows with its own fresh
// leading byte, and the value payload is then decoded against the captured
// byte. A Nil typecode in entry position terminates the dict.
func (d *decoder) dict(flags uint8) (*Node, error) {
	countOff := d.off
	count, err := d.uvarint()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, capHint(count))
	for {
		vlead, err := d.byte()
		if err != nil {
			return nil, err
		}
		if vlead&typecodeMask == typeNil {
			if uint64(len(entries)) != count {
				return nil, errorAt(KindMalformed, "SB-DEC-005",
					fmt.Sprintf("dict declared %d entries but terminated after %d", count, len(entries)), d.off-1)
			}
			return &Node{Kind: KindDict, Flags: flags, Entries: entries}, nil
		}
		if uint64(len(entries)) == count {
			return nil, errorAt(KindMalformed, "SB-DEC-005",
				fmt.Sprintf("dict declared %d entries but holds more (declared at offset %d)", count, countOff), d.off-1)
		}
		key, err := d.node()
		if err != nil {
			return nil, err
		}
		value, err := d.nodeWithLead(vlead)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Key: key, Value: value})
	}
}

// capHint bounds pre-allocation so a corrupt count cannot force a huge
// allocation before the terminator check catches it.
func capHint(count uint64) int {
	if count < 64 {
		return int(count)
	}
	return 64
}
