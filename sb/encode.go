package sb

import "fmt"

// Encode writes a tree back to its wire form. Flags are reattached to each
// node's leading byte, collection counts are emitted alongside the Nil
// terminators, and varints use the minimal encoding. Encoding a decoded
// tree reproduces the original buffer byte for byte when the buffer used
// minimal varints.
func Encode(n *Node) ([]byte, error) {
	e := &encoder{}
	if err := e.node(n); err != nil {
		return nil, err
	}
	return e.buf, nil
}

type encoder struct {
	buf []byte
}

func (e *encoder) node(n *Node) error {
	if n == nil {
		return newError(KindMalformed, "SB-ENC-001", "cannot encode a nil node pointer")
	}
	lead, err := leadByte(n)
	if err != nil {
		return err
	}
	e.buf = append(e.buf, lead)
	return e.payload(n)
}

func leadByte(n *Node) (byte, error) {
	var code byte
	switch n.Kind {
	case KindNil:
		code = typeNil
	case KindList:
		code = typeList
	case KindDict:
		code = typeDict
	case KindVarInt:
		code = typeVarInt
	case KindUnknown8:
		code = typeUnknown8
	case KindBool:
		code = typeBool
	case KindString:
		code = typeString
	case KindInt32:
		code = typeInt32
	case KindInt64:
		code = typeInt64
	case KindUUID:
		code = typeUUID
	case KindSHA1:
		code = typeSHA1
	case KindBlob:
		code = typeBlob
	default:
		return 0, newError(KindMalformed, "SB-ENC-002", fmt.Sprintf("cannot encode kind %s", n.Kind))
	}
	return n.Flags<<flagShift | code, nil
}

// payload emits everything after the leading byte.
func (e *encoder) payload(n *Node) error {
	switch n.Kind {
	case KindNil:
		return nil
	case KindBool:
		if n.Bool {
			e.buf = append(e.buf, 1)
		} else {
			e.buf = append(e.buf, 0)
		}
		return nil
	case KindVarInt:
		e.uvarint(n.Uint)
		return nil
	case KindInt32:
		v := uint32(int32(n.Int))
		e.buf = append(e.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
		return nil
	case KindInt64:
		v := uint64(n.Int)
		e.buf = append(e.buf,
			byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
			byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
		return nil
	case KindString:
		e.uvarint(uint64(len(n.Bytes)) + 1)
		e.buf = append(e.buf, n.Bytes...)
		e.buf = append(e.buf, 0)
		return nil
	case KindBlob:
		e.uvarint(uint64(len(n.Bytes)))
		e.buf = append(e.buf, n.Bytes...)
		return nil
	case KindUUID:
		e.buf = append(e.buf, n.UUID[:]...)
		return nil
	case KindSHA1:
		e.buf = append(e.buf, n.SHA1[:]...)
		return nil
	case KindUnknown8:
		e.buf = append(e.buf, n.Unknown8[:]...)
		return nil
	case KindList:
		e.uvarint(uint64(len(n.Children)))
		for _, c := range n.Children {
			if err := e.node(c); err != nil {
				return err
			}
		}
		e.buf = append(e.buf, typeNil)
		return nil
	case KindDict:
		e.uvarint(uint64(len(n.Entries)))
		for _, entry := range n.Entries {
			// Entry layout mirrors the decoder: value lead byte first,
			// then the full key node, then the value payload.
			if entry.Value == nil || entry.Key == nil {
				return newError(KindMalformed, "SB-ENC-001", "dict entry with nil key or value")
			}
			lead, err := leadByte(entry.Value)
			if err != nil {
				return err
			}
			e.buf = append(e.buf, lead)
			if err := e.node(entry.Key); err != nil {
				return err
			}
			if err := e.payload(entry.Value); err != nil {
				return err
			}
		}
		e.buf = append(e.buf, typeNil)
		return nil
	default:
		return newError(KindMalformed, "SB-ENC-002", fmt.Sprintf("cannot encode kind %s", n.Kind))
	}
}

func (e *encoder) uvarint(v uint64) {
	for v >= 0x80 {
		e.buf = append(e.buf, byte(v)|0x80)
		v >>= 7
	}
	e.buf = append(e.buf, byte(v))
}
