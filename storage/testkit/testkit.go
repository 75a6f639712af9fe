// Package testkit builds synthetic CAS, CAT and container fixtures shared
// by tests across packages. Nothing here touches the filesystem.
package testkit

import (
	"bytes"
	"encoding/binary"
	"io"

	"xdao.co/sbkit/contenthash"
	"xdao.co/sbkit/storage"
	"xdao.co/sbkit/storage/cas"
	"xdao.co/sbkit/storage/catalog"
)

// AppendCASEntry appends one framed CAS entry (marker, hash, length,
// padding, payload) to buf and returns the extended buffer plus the file
// offset of the payload, which is what catalog entries point at.
func AppendCASEntry(buf []byte, h contenthash.Hash, payload []byte) ([]byte, uint32) {
	buf = append(buf, cas.Marker[:]...)
	buf = append(buf, h[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(payload)))
	buf = append(buf, 0, 0, 0, 0)
	off := uint32(len(buf))
	buf = append(buf, payload...)
	return buf, off
}

// CASBuffer frames payloads keyed by their own content hash, in order.
func CASBuffer(payloads ...[]byte) ([]byte, []contenthash.Hash, error) {
	var buf []byte
	hashes := make([]contenthash.Hash, 0, len(payloads))
	for _, p := range payloads {
		h, err := contenthash.Sum(p)
		if err != nil {
			return nil, nil, err
		}
		buf, _ = AppendCASEntry(buf, h, p)
		hashes = append(hashes, h)
	}
	return buf, hashes, nil
}

// CATBuffer serializes a catalog file: header plus the given entries in
// order.
func CATBuffer(entries ...catalog.Entry) []byte {
	buf := []byte(catalog.Header)
	for _, e := range entries {
		buf = append(buf, e.Hash[:]...)
		buf = binary.LittleEndian.AppendUint32(buf, e.Offset)
		buf = binary.LittleEndian.AppendUint32(buf, e.Size)
		buf = binary.LittleEndian.AppendUint32(buf, e.CASIndex)
	}
	return buf
}

// MemOpener serves named files from memory.
type MemOpener map[string][]byte

func (m MemOpener) Open(name string) (storage.File, error) {
	data, ok := m[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &memFile{Reader: bytes.NewReader(data)}, nil
}

type memFile struct {
	*bytes.Reader
}

func (*memFile) Close() error { return nil }

var _ io.ReaderAt = (*memFile)(nil)

// EncryptContainer wraps plain inside an obfuscated container: magic,
// delimited hash token, keystream table, then the payload XORed with the
// table. The fixed fills keep fixtures reproducible.
func EncryptContainer(plain []byte) []byte {
	const (
		tokenOffset   = 0x08
		tokenSize     = 256
		tableOffset   = 0x128
		tableSize     = 257
		payloadOffset = 0x22c
	)

	raw := make([]byte, payloadOffset+len(plain))
	copy(raw, []byte{0x00, 0xd1, 0xce, 0x00})
	raw[tokenOffset] = 'x'
	for i := 0; i < tokenSize; i++ {
		raw[tokenOffset+1+i] = 'a'
	}
	raw[tokenOffset+1+tokenSize] = 'x'
	for i := 0; i < tableSize; i++ {
		raw[tableOffset+i] = byte(i * 7)
	}
	for i, b := range plain {
		raw[payloadOffset+i] = b ^ raw[tableOffset+i%tableSize] ^ 0x7b
	}
	return raw
}
