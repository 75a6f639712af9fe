package sb

import (
	"bytes"
	"fmt"
)

// Obfuscated containers start with this magic value and carry a 256
// character hash token plus a 257 byte keystream table in the header.
// The payload begins at a fixed offset after the table.
const (
	hashTokenOffset = 0x08
	hashTokenSize   = 256
	hashTokenDelim  = 'x'

	keystreamOffset = 0x128

	// KeystreamSize is the length of the keystream table. The table is
	// applied cyclically, so payload byte i is XORed with table entry
	// i mod KeystreamSize.
	KeystreamSize = 257

	payloadOffset = 0x22c
	keystreamXOR  = 0x7b
)

var encryptedMagic = []byte{0x00, 0xd1, 0xce, 0x00}

// EncryptedHeader describes the header of an obfuscated container.
//
// HashToken is the 256 character ASCII token found between the literal 'x'
// delimiter bytes at the start of the header. Its purpose is unknown; it is
// preserved verbatim and never interpreted.
type EncryptedHeader struct {
	HashToken [hashTokenSize]byte
	Keystream [KeystreamSize]byte
}

// Apply XORs data in place with the keystream, where start is the position
// of data[0] relative to the beginning of the payload. Applying the same
// keystream twice restores the original bytes.
func (h *EncryptedHeader) Apply(data []byte, start int64) {
	for i := range data {
		data[i] ^= h.Keystream[(start+int64(i))%KeystreamSize] ^ keystreamXOR
	}
}

// IsEncrypted reports whether raw begins with the obfuscated container magic.
func IsEncrypted(raw []byte) bool {
	return len(raw) >= len(encryptedMagic) && bytes.Equal(raw[:len(encryptedMagic)], encryptedMagic)
}

// Decrypt returns the plaintext payload of a container.
//
// If raw does not start with the magic value the whole input is already
// plaintext: it is returned unchanged and the header is nil. Otherwise the
// header is validated, the keystream table extracted, and a freshly
// allocated decrypted copy of the payload is returned.
func Decrypt(raw []byte) ([]byte, *EncryptedHeader, error) {
	if !IsEncrypted(raw) {
		return raw, nil, nil
	}
	if len(raw) < payloadOffset {
		return nil, nil, errorAt(KindMalformed, "SB-HDR-001",
			fmt.Sprintf("container claims the encrypted magic but is %d bytes, need at least %d", len(raw), payloadOffset), 0)
	}
	if raw[hashTokenOffset] != hashTokenDelim {
		return nil, nil, errorAt(KindMalformed, "SB-HDR-002",
			fmt.Sprintf("hash token start delimiter: expected %q, found 0x%02x", hashTokenDelim, raw[hashTokenOffset]), hashTokenOffset)
	}
	if raw[hashTokenOffset+1+hashTokenSize] != hashTokenDelim {
		return nil, nil, errorAt(KindMalformed, "SB-HDR-003",
			fmt.Sprintf("hash token end delimiter: expected %q, found 0x%02x", hashTokenDelim, raw[hashTokenOffset+1+hashTokenSize]), hashTokenOffset+1+hashTokenSize)
	}

	hdr := new(EncryptedHeader)
	copy(hdr.HashToken[:], raw[hashTokenOffset+1:])
	copy(hdr.Keystream[:], raw[keystreamOffset:])

	plain := make([]byte, len(raw)-payloadOffset)
	copy(plain, raw[payloadOffset:])
	hdr.Apply(plain, 0)
	return plain, hdr, nil
}

// Parse decrypts raw if needed and decodes the payload into a tree.
// The returned header is nil for plaintext containers.
func Parse(raw []byte) (*Node, *EncryptedHeader, error) {
	plain, hdr, err := Decrypt(raw)
	if err != nil {
		return nil, nil, err
	}
	node, err := Decode(plain)
	if err != nil {
		return nil, nil, err
	}
	return node, hdr, nil
}
