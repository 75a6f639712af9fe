// Package contenthash defines the 20-byte SHA-1 content hash that keys
// every payload in the storage layer, together with its CID bridge.
package contenthash

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Size is the byte length of a content hash.
const Size = 20

// ErrMismatch is returned when payload bytes do not hash to the hash they
// are filed under.
var ErrMismatch = errors.New("contenthash: digest mismatch")

// Hash is a raw SHA-1 content hash. The zero value is not a valid hash of
// any payload but is usable as a map key.
type Hash [Size]byte

// FromBytes copies a 20-byte slice into a Hash.
func FromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != Size {
		return h, fmt.Errorf("contenthash: expected %d bytes, got %d", Size, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// FromHex parses a 40-character lowercase or uppercase hex string.
func FromHex(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("contenthash: %w", err)
	}
	return FromBytes(b)
}

func (h Hash) Hex() string    { return hex.EncodeToString(h[:]) }
func (h Hash) String() string { return h.Hex() }
func (h Hash) Bytes() []byte  { return h[:] }

// Sum computes the content hash of data.
func Sum(data []byte) (Hash, error) {
	mh, err := multihash.Sum(data, multihash.SHA1, -1)
	if err != nil {
		return Hash{}, err
	}
	dec, err := multihash.Decode(mh)
	if err != nil {
		return Hash{}, err
	}
	return FromBytes(dec.Digest)
}

// Verify checks data against want and returns ErrMismatch (wrapped with
// both digests) when they disagree.
func Verify(data []byte, want Hash) error {
	got, err := Sum(data)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: got %s want %s", ErrMismatch, got, want)
	}
	return nil
}

// CID returns a CIDv1 using the "raw" multicodec over the existing SHA-1
// digest. No hashing is performed; the digest is wrapped as-is.
func (h Hash) CID() (cid.Cid, error) {
	mh, err := multihash.Encode(h[:], multihash.SHA1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// SumCID returns the CIDv1 (raw + sha1) derived from data.
func SumCID(data []byte) (cid.Cid, error) {
	h, err := Sum(data)
	if err != nil {
		return cid.Undef, err
	}
	return h.CID()
}
