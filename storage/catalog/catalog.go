// Package catalog parses CAT index files, which map content hashes to
// their location inside numbered CAS payload files.
package catalog

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"xdao.co/sbkit/contenthash"
	"xdao.co/sbkit/sb"
)

// Header is the fixed ASCII signature every CAT file starts with.
const Header = "NyanNyanNyanNyan"

const entrySize = contenthash.Size + 4 + 4 + 4

// Entry locates one blob: size bytes at offset inside the CAS file named
// by CASIndex. How CASIndex maps to a file name is a resolver concern
// (storage.CASNamer), not part of the catalog.
type Entry struct {
	Hash     contenthash.Hash
	Offset   uint32
	Size     uint32
	CASIndex uint32
}

// Catalog is a read-only hash index over one CAT file. Once built it never
// mutates, so it is safe to share across goroutines without locking.
type Catalog struct {
	entries map[contenthash.Hash]Entry
	order   []contenthash.Hash
}

// Parse validates the header and reads fixed-size entries to end-of-file.
//
// Hashes are expected to be unique within one catalog, but nothing in the
// format enforces it, so the policy is explicit: the FIRST entry for a
// hash wins and later duplicates are ignored, the way the first hit on a
// search path shadows the rest. Note that tools which load CAT files into
// a plain map by overwriting in file order end up with the opposite,
// last-seen-wins behavior; retail catalogs carry no duplicates, so the
// two policies only diverge on corrupt or hand-built input.
func Parse(r io.Reader) (*Catalog, error) {
	var head [len(Header)]byte
	if n, err := io.ReadFull(r, head[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, &sb.Error{
				Kind:    sb.KindMalformed,
				RuleID:  "CAT-001",
				Message: fmt.Sprintf("truncated header: %d of %d bytes", n, len(Header)),
				Offset:  0,
			}
		}
		return nil, &sb.Error{Kind: sb.KindIO, RuleID: "CAT-003", Message: "read header", Offset: 0, Cause: err}
	}
	if string(head[:]) != Header {
		return nil, &sb.Error{
			Kind:    sb.KindMalformed,
			RuleID:  "CAT-001",
			Message: fmt.Sprintf("header: expected %q, found %q", Header, head[:]),
			Offset:  0,
		}
	}

	cat := &Catalog{entries: make(map[contenthash.Hash]Entry)}
	off := int64(len(Header))
	var buf [entrySize]byte
	for {
		n, err := io.ReadFull(r, buf[:])
		if err == io.EOF && n == 0 {
			return cat, nil
		}
		if err == io.ErrUnexpectedEOF {
			return nil, &sb.Error{
				Kind:    sb.KindMalformed,
				RuleID:  "CAT-002",
				Message: fmt.Sprintf("truncated entry: %d of %d bytes", n, entrySize),
				Offset:  off,
			}
		}
		if err != nil {
			return nil, &sb.Error{Kind: sb.KindIO, RuleID: "CAT-003", Message: "read entry", Offset: off, Cause: err}
		}

		hash, _ := contenthash.FromBytes(buf[:contenthash.Size])
		e := Entry{
			Hash:     hash,
			Offset:   binary.LittleEndian.Uint32(buf[contenthash.Size:]),
			Size:     binary.LittleEndian.Uint32(buf[contenthash.Size+4:]),
			CASIndex: binary.LittleEndian.Uint32(buf[contenthash.Size+8:]),
		}
		if _, dup := cat.entries[hash]; !dup {
			cat.entries[hash] = e
			cat.order = append(cat.order, hash)
		}
		off += entrySize
	}
}

// ParseBytes parses a catalog from raw file bytes, running the container
// decryption pre-pass first: retail catalogs ship inside the same
// obfuscated container as TOC files.
func ParseBytes(raw []byte) (*Catalog, error) {
	plain, _, err := sb.Decrypt(raw)
	if err != nil {
		return nil, err
	}
	return Parse(bytes.NewReader(plain))
}

// Lookup returns the entry for h. The second result is false on a miss.
func (c *Catalog) Lookup(h contenthash.Hash) (Entry, bool) {
	e, ok := c.entries[h]
	return e, ok
}

// Len returns the number of distinct hashes indexed.
func (c *Catalog) Len() int { return len(c.entries) }

// Hashes returns every indexed hash sorted by hex form, giving extraction
// walks a deterministic order independent of map iteration.
func (c *Catalog) Hashes() []contenthash.Hash {
	out := make([]contenthash.Hash, len(c.order))
	copy(out, c.order)
	sort.Slice(out, func(i, j int) bool { return out[i].Hex() < out[j].Hex() })
	return out
}

