// Package resolver turns content hashes into asset bytes by composing a
// catalog index, a CAS naming convention and a byte-source opener.
//
// Resolution is a pure lookup-and-read: no caching, no retries, no
// verification unless asked. CAS file handles are scoped to a single call
// and released on every exit path, so independent resolves may run
// concurrently against the same shared catalog.
package resolver

import (
	"fmt"

	"xdao.co/sbkit/contenthash"
	"xdao.co/sbkit/storage"
	"xdao.co/sbkit/storage/cas"
	"xdao.co/sbkit/storage/catalog"
)

// Options configures resolution. The zero value names CAS files after the
// retail "cas" base and skips payload verification.
type Options struct {
	// Namer maps a catalog entry's cas index to a file name for the
	// opener. Nil falls back to storage.DefaultCASNamer("cas").
	Namer storage.CASNamer

	// Verify re-hashes every resolved payload against the requested
	// hash. Off by default: it doubles the cost of a resolve and CAS
	// data is read-only in practice.
	Verify bool
}

func (o Options) withDefaults() Options {
	if o.Namer == nil {
		o.Namer = storage.DefaultCASNamer("cas")
	}
	return o
}

// Resolver resolves hashes through one catalog. It holds no open files and
// no mutable state; it is safe for concurrent use.
type Resolver struct {
	catalog *catalog.Catalog
	opener  storage.Opener
	opts    Options
}

func New(cat *catalog.Catalog, opener storage.Opener, opts Options) *Resolver {
	return &Resolver{catalog: cat, opener: opener, opts: opts.withDefaults()}
}

// Resolve returns the payload bytes for h.
//
// A catalog miss yields storage.ErrNotFound (wrapped with the hash): the
// asset is absent, nothing is corrupt. Open and read failures propagate
// from the byte source unretried.
func (r *Resolver) Resolve(h contenthash.Hash) ([]byte, error) {
	entry, ok := r.catalog.Lookup(h)
	if !ok {
		return nil, fmt.Errorf("resolver: %s: %w", h, storage.ErrNotFound)
	}

	name := r.opts.Namer(entry.CASIndex)
	f, err := r.opener.Open(name)
	if err != nil {
		return nil, fmt.Errorf("resolver: open %s for %s: %w", name, h, err)
	}
	defer f.Close()

	data, err := cas.ReadAt(f, int64(entry.Offset), entry.Size)
	if err != nil {
		return nil, err
	}
	if r.opts.Verify {
		if err := contenthash.Verify(data, h); err != nil {
			return nil, fmt.Errorf("resolver: %s in %s: %w", h, name, err)
		}
	}
	return data, nil
}

// ExtractAll resolves every hash in the catalog, in deterministic hash
// order, and stores each payload in dst. It stops at the first failure.
func (r *Resolver) ExtractAll(dst storage.BlobStore) error {
	for _, h := range r.catalog.Hashes() {
		data, err := r.Resolve(h)
		if err != nil {
			return err
		}
		if _, err := dst.Put(data); err != nil {
			return fmt.Errorf("resolver: store %s: %w", h, err)
		}
	}
	return nil
}
