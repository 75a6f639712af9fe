package resolver_test

import (
	"bytes"
	"fmt"
	"testing"

	"xdao.co/sbkit/contenthash"
	"xdao.co/sbkit/resolver"
	"xdao.co/sbkit/storage"
	"xdao.co/sbkit/storage/catalog"
	"xdao.co/sbkit/storage/localfs"
	"xdao.co/sbkit/storage/testkit"
)

// fixture builds one CAS file holding the given payloads plus a catalog
// addressing them all through the default "cas" naming convention.
func fixture(t *testing.T, casIndex uint32, payloads ...[]byte) (*catalog.Catalog, testkit.MemOpener, []contenthash.Hash) {
	t.Helper()

	var (
		casBuf  []byte
		hashes  []contenthash.Hash
		entries []catalog.Entry
	)
	for _, p := range payloads {
		h, err := contenthash.Sum(p)
		if err != nil {
			t.Fatalf("Sum failed: %v", err)
		}
		var payloadOff uint32
		casBuf, payloadOff = testkit.AppendCASEntry(casBuf, h, p)
		hashes = append(hashes, h)
		entries = append(entries, catalog.Entry{
			Hash:     h,
			Offset:   payloadOff,
			Size:     uint32(len(p)),
			CASIndex: casIndex,
		})
	}

	cat, err := catalog.Parse(bytes.NewReader(testkit.CATBuffer(entries...)))
	if err != nil {
		t.Fatalf("catalog.Parse failed: %v", err)
	}

	opener := testkit.MemOpener{
		storage.DefaultCASNamer("cas")(casIndex): casBuf,
	}
	return cat, opener, hashes
}

func TestResolve(t *testing.T) {
	cat, opener, hashes := fixture(t, 2, []byte("hello"), []byte("world payload"))
	r := resolver.New(cat, opener, resolver.Options{})

	for i, want := range []string{"hello", "world payload"} {
		got, err := r.Resolve(hashes[i])
		if err != nil {
			t.Fatalf("Resolve(%s) failed: %v", hashes[i], err)
		}
		if string(got) != want {
			t.Fatalf("Resolve(%s): got %q want %q", hashes[i], got, want)
		}
	}
}

func TestResolve_NotFound(t *testing.T) {
	cat, opener, _ := fixture(t, 1, []byte("present"))
	r := resolver.New(cat, opener, resolver.Options{})

	absent, err := contenthash.Sum([]byte("absent"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Resolve(absent); !storage.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolve_MissingCASFile(t *testing.T) {
	cat, _, hashes := fixture(t, 3, []byte("x"))
	r := resolver.New(cat, testkit.MemOpener{}, resolver.Options{})

	if _, err := r.Resolve(hashes[0]); !storage.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound from opener, got %v", err)
	}
}

func TestResolve_Verify(t *testing.T) {
	cat, opener, hashes := fixture(t, 1, []byte("pristine"))

	// Tamper with the payload bytes in place; the frame stays intact.
	name := storage.DefaultCASNamer("cas")(1)
	buf := opener[name]
	buf[len(buf)-1] ^= 0xff

	plain := resolver.New(cat, opener, resolver.Options{})
	if _, err := plain.Resolve(hashes[0]); err != nil {
		t.Fatalf("unverified Resolve rejected tampered data: %v", err)
	}

	checked := resolver.New(cat, opener, resolver.Options{Verify: true})
	if _, err := checked.Resolve(hashes[0]); err == nil {
		t.Fatalf("verified Resolve accepted tampered data")
	}
}

func TestResolve_CustomNamer(t *testing.T) {
	cat, _, hashes := fixture(t, 7, []byte("renamed"))
	casBuf, _, err := testkit.CASBuffer([]byte("renamed"))
	if err != nil {
		t.Fatal(err)
	}

	namer := func(index uint32) string { return fmt.Sprintf("data/archive%d.bin", index) }
	opener := testkit.MemOpener{"data/archive7.bin": casBuf}

	r := resolver.New(cat, opener, resolver.Options{Namer: namer})
	got, err := r.Resolve(hashes[0])
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if string(got) != "renamed" {
		t.Fatalf("Resolve: got %q", got)
	}
}

func TestExtractAll(t *testing.T) {
	payloads := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	cat, opener, _ := fixture(t, 0, payloads...)
	r := resolver.New(cat, opener, resolver.Options{})

	dst, err := localfs.NewExtractStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := r.ExtractAll(dst); err != nil {
		t.Fatalf("ExtractAll failed: %v", err)
	}

	for _, p := range payloads {
		id, err := contenthash.SumCID(p)
		if err != nil {
			t.Fatal(err)
		}
		got, err := dst.Get(id)
		if err != nil {
			t.Fatalf("Get(%s) failed: %v", id, err)
		}
		if string(got) != string(p) {
			t.Fatalf("Get(%s): got %q want %q", id, got, p)
		}
	}
}
