// Package localfs backs the storage interfaces with a local directory:
// a storage.Opener over game data files, and ExtractStore, an immutable
// content-addressed output directory for extracted payloads.
package localfs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/ipfs/go-cid"

	"xdao.co/sbkit/contenthash"
	"xdao.co/sbkit/storage"
)

// Dir opens files relative to a root directory. Names must stay inside the
// root; path escapes are rejected rather than resolved.
type Dir struct {
	root string
}

// NewDir constructs an opener over an existing directory.
func NewDir(root string) (*Dir, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("localfs: root is not a directory")
	}
	return &Dir{root: root}, nil
}

func (d *Dir) Open(name string) (storage.File, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return nil, errors.New("localfs: name escapes root: " + name)
	}
	f, err := os.Open(filepath.Join(d.root, clean))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// ExtractStore is a filesystem-backed storage.BlobStore keyed by
// CIDv1(raw, sha1) of the stored bytes.
//
// Objects are stored immutably under sharded paths. This is the extraction
// target for resolved superbundle assets: dumping a whole catalog lands
// every payload here exactly once, however many bundles reference it.
type ExtractStore struct {
	root string
}

// NewExtractStore constructs a store rooted at root. The directory is
// created if needed.
func NewExtractStore(root string) (*ExtractStore, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &ExtractStore{root: root}, nil
}

func (s *ExtractStore) Put(data []byte) (cid.Cid, error) {
	id, err := contenthash.SumCID(data)
	if err != nil {
		return cid.Undef, err
	}
	if !id.Defined() {
		return cid.Undef, storage.ErrInvalidCID
	}

	path := s.pathFor(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cid.Undef, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		if os.IsExist(err) {
			existing, rerr := s.Get(id)
			if rerr != nil {
				// The object exists but is unreadable or corrupted:
				// an immutability violation, not something to repair.
				return cid.Undef, storage.ErrImmutable
			}
			if string(existing) != string(data) {
				return cid.Undef, storage.ErrImmutable
			}
			return id, nil
		}
		return cid.Undef, err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return cid.Undef, err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return cid.Undef, err
	}
	// A failed close can mean the tail never hit the disk; never report
	// success over a possibly truncated object.
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return cid.Undef, err
	}

	return id, nil
}

func (s *ExtractStore) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	b, err := os.ReadFile(s.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	got, err := contenthash.SumCID(b)
	if err != nil {
		return nil, err
	}
	if got != id {
		return nil, storage.ErrCIDMismatch
	}
	return b, nil
}

func (s *ExtractStore) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	_, err := os.Stat(s.pathFor(id))
	return err == nil
}

func (s *ExtractStore) pathFor(id cid.Cid) string {
	str := id.String()
	if len(str) < 2 {
		return filepath.Join(s.root, str)
	}
	return filepath.Join(s.root, str[:2], str)
}
