// Package cas reads CAS payload files: flat sequences of framed blobs
// keyed by content hash.
//
// A file is a repetition of entries to end-of-file, each framed as a fixed
// 4 byte marker, the 20 byte content hash, a little-endian uint32 payload
// length and 4 bytes of padding, followed by the payload itself. No index
// lives in the file; random access comes from a catalog (see
// storage/catalog) pointing at payload offsets.
package cas

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"xdao.co/sbkit/contenthash"
	"xdao.co/sbkit/sb"
	"xdao.co/sbkit/storage"
)

// Marker frames every entry.
var Marker = [4]byte{0xfa, 0xce, 0x0f, 0xf0}

const headerSize = 4 + contenthash.Size + 4 + 4

// Blob is one CAS entry. Offset is the file position of the payload (not
// the marker), which is what catalog entries point at.
type Blob struct {
	Hash   contenthash.Hash
	Offset int64
	Size   uint32
	Data   []byte
}

// Verify checks the payload against the hash it is filed under. The
// scanner never does this on its own; integrity checking is an explicit
// caller decision.
func (b Blob) Verify() error {
	return contenthash.Verify(b.Data, b.Hash)
}

// Scanner iterates over the entries of a CAS file in file order. The scan
// is forward-only; restart it by reopening the source.
//
// A marker mismatch stops the scan with a malformed-input error. There is
// no resynchronization heuristic: CAS files are densely packed and a bad
// marker means the frame structure is lost.
type Scanner struct {
	r    io.Reader
	off  int64
	blob Blob
	err  error
	done bool
}

func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: r}
}

// Scan advances to the next entry. It returns false at end-of-file or on
// the first error; Err distinguishes the two.
func (s *Scanner) Scan() bool {
	if s.done || s.err != nil {
		return false
	}

	var head [headerSize]byte
	n, err := io.ReadFull(s.r, head[:])
	if err == io.EOF && n == 0 {
		s.done = true
		return false
	}
	if err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			s.err = &sb.Error{
				Kind:    sb.KindMalformed,
				RuleID:  "CAS-002",
				Message: fmt.Sprintf("truncated entry header: %d of %d bytes", n, headerSize),
				Offset:  s.off,
			}
		} else {
			s.err = &sb.Error{Kind: sb.KindIO, RuleID: "CAS-003", Message: "read entry header", Offset: s.off, Cause: err}
		}
		return false
	}
	if !bytes.Equal(head[:4], Marker[:]) {
		s.err = &sb.Error{
			Kind:    sb.KindMalformed,
			RuleID:  "CAS-001",
			Message: fmt.Sprintf("entry marker: expected %x, found %x", Marker, head[:4]),
			Offset:  s.off,
		}
		return false
	}

	hash, _ := contenthash.FromBytes(head[4 : 4+contenthash.Size])
	size := binary.LittleEndian.Uint32(head[4+contenthash.Size:])
	payloadOff := s.off + headerSize

	data := make([]byte, size)
	if _, err := io.ReadFull(s.r, data); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			s.err = &sb.Error{
				Kind:    sb.KindMalformed,
				RuleID:  "CAS-002",
				Message: fmt.Sprintf("truncated payload: declared %d bytes", size),
				Offset:  payloadOff,
			}
		} else {
			s.err = &sb.Error{Kind: sb.KindIO, RuleID: "CAS-003", Message: "read payload", Offset: payloadOff, Cause: err}
		}
		return false
	}

	s.blob = Blob{Hash: hash, Offset: payloadOff, Size: size, Data: data}
	s.off = payloadOff + int64(size)
	return true
}

// Blob returns the entry read by the last successful Scan.
func (s *Scanner) Blob() Blob { return s.blob }

// Err returns the error that stopped the scan, or nil on clean EOF.
func (s *Scanner) Err() error { return s.err }

// ReadAt reads size payload bytes at offset, bypassing iteration. This is
// the random-access path used by the resolver once a catalog has located a
// blob; it performs no marker or hash checking.
func ReadAt(f storage.File, offset int64, size uint32) ([]byte, error) {
	data := make([]byte, size)
	if _, err := f.ReadAt(data, offset); err != nil {
		return nil, &sb.Error{
			Kind:    sb.KindIO,
			RuleID:  "CAS-003",
			Message: fmt.Sprintf("read %d bytes at offset %d", size, offset),
			Offset:  offset,
			Cause:   err,
		}
	}
	return data, nil
}
