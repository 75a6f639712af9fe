// Package bundle gives access to a superbundle pair: a .toc file whose
// decoded tree lists the bundle files, and a .sb file holding each file's
// contents at a byte range named by the TOC.
//
// Bundles never own CAS data; their decoded trees reference it by SHA1
// content hash, and resolving those hashes is the resolver's job.
package bundle

import (
	"fmt"
	"io"

	"xdao.co/sbkit/contenthash"
	"xdao.co/sbkit/sb"
	"xdao.co/sbkit/storage"
)

// Bundle is an opened superbundle. Root is the decoded TOC tree; Header is
// non-nil when the TOC shipped inside an obfuscated container.
type Bundle struct {
	Root   *sb.Node
	Header *sb.EncryptedHeader

	sbName string
	opener storage.Opener
	files  []*File
}

// File is one entry of the TOC's "bundles" list. Entries without an offset
// and size are listed but cannot be opened; the TOC uses them as bare
// references.
type File struct {
	ID     string
	Offset int64
	Size   int64

	openable bool
	b        *Bundle
}

// Load opens basename+".toc" and prepares basename+".sb" through the same
// opener. The .sb file is opened lazily, once per content read.
func Load(basename string, opener storage.Opener) (*Bundle, error) {
	f, err := opener.Open(basename + ".toc")
	if err != nil {
		return nil, fmt.Errorf("bundle: open %s.toc: %w", basename, err)
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("bundle: read %s.toc: %w", basename, err)
	}
	return Open(raw, basename+".sb", opener)
}

// Open decodes a TOC from raw bytes (decrypting if needed) and binds its
// files to the named .sb file.
func Open(tocRaw []byte, sbName string, opener storage.Opener) (*Bundle, error) {
	root, hdr, err := sb.Parse(tocRaw)
	if err != nil {
		return nil, err
	}
	b := &Bundle{Root: root, Header: hdr, sbName: sbName, opener: opener}

	if list := root.Get("bundles"); list != nil && list.Kind == sb.KindList {
		for _, entry := range list.Children {
			id := entry.Get("id")
			if id == nil || id.Kind != sb.KindString {
				continue
			}
			file := &File{ID: string(id.Bytes), b: b}
			offset, size := entry.Get("offset"), entry.Get("size")
			if isInt(offset) && isInt(size) {
				file.Offset, file.Size = offset.Int, size.Int
				file.openable = true
			}
			b.files = append(b.files, file)
		}
	}
	return b, nil
}

func isInt(n *sb.Node) bool {
	return n != nil && (n.Kind == sb.KindInt32 || n.Kind == sb.KindInt64)
}

// Files lists the bundle's files in TOC order.
func (b *Bundle) Files() []*File {
	out := make([]*File, len(b.files))
	copy(out, b.files)
	return out
}

// File returns the file with the given id, or nil.
func (b *Bundle) File(id string) *File {
	for _, f := range b.files {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// UUID returns the first UUID node in the TOC tree, which identifies the
// bundle, and false when the tree carries none.
func (b *Bundle) UUID() ([16]byte, bool) {
	var id [16]byte
	found := false
	b.Root.Walk(func(n *sb.Node) {
		if !found && n.Kind == sb.KindUUID {
			id = n.UUID
			found = true
		}
	})
	return id, found
}

// Openable reports whether the TOC gave this file a byte range in the .sb.
func (f *File) Openable() bool { return f.openable }

// Raw reads the file's byte range out of the .sb file. The handle is
// scoped to this call.
func (f *File) Raw() ([]byte, error) {
	if !f.openable {
		return nil, fmt.Errorf("bundle: file %q has no offset/size: %w", f.ID, storage.ErrNotFound)
	}
	src, err := f.b.opener.Open(f.b.sbName)
	if err != nil {
		return nil, fmt.Errorf("bundle: open %s: %w", f.b.sbName, err)
	}
	defer src.Close()

	data := make([]byte, f.Size)
	if _, err := src.ReadAt(data, f.Offset); err != nil {
		return nil, fmt.Errorf("bundle: read %q (%d bytes at %d): %w", f.ID, f.Size, f.Offset, err)
	}
	return data, nil
}

// Contents decodes the file's byte range as a superbundle tree. The .sb
// payload regions are stored in the clear regardless of whether the TOC
// container was obfuscated.
func (f *File) Contents() (*sb.Node, error) {
	raw, err := f.Raw()
	if err != nil {
		return nil, err
	}
	return sb.Decode(raw)
}

// SHA1Refs decodes the file and collects every content hash it references,
// in read order.
func (f *File) SHA1Refs() ([]contenthash.Hash, error) {
	root, err := f.Contents()
	if err != nil {
		return nil, err
	}
	return root.SHA1Refs(), nil
}
