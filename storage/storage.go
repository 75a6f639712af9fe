// Package storage defines the byte-source boundary of the toolkit: how
// named CAS, CAT, SB and TOC files are opened for sequential or random
// access, and the naming convention tying a catalog's cas index to a
// physical payload file.
//
// Locating files beyond these interfaces (search paths, settings files) is
// a caller concern.
package storage

import (
	"fmt"
	"io"

	"github.com/ipfs/go-cid"
)

// File is an open byte source. Reads may be sequential or positional;
// implementations need not be safe for concurrent use of the same handle.
type File interface {
	io.Reader
	io.ReaderAt
	io.Closer
}

// Opener opens named files. Names are opaque identifiers produced by the
// caller or by a CASNamer; an Opener decides what they mean (a directory
// entry, an archive member, a test fixture).
type Opener interface {
	Open(name string) (File, error)
}

// BlobStore is an immutable content-addressed sink for extracted payloads.
//
// Contract:
// - Put MUST be idempotent and MUST derive the CID from the bytes written.
// - Stored objects MUST be immutable.
// - Get MUST return ErrNotFound when the CID is absent.
type BlobStore interface {
	Put(data []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

// CASNamer maps a catalog's integer cas index to a file name for an Opener.
type CASNamer func(index uint32) string

// DefaultCASNamer names payload files the way retail data ships them:
// catalog cas.cat with index 2 sits next to cas_02.cas.
func DefaultCASNamer(base string) CASNamer {
	return func(index uint32) string {
		return fmt.Sprintf("%s_%02d.cas", base, index)
	}
}
