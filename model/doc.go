// Package model defines stable boundary types for embedding callers:
// plain-Go projections of decoded superbundle trees, deterministic CBOR
// snapshots of them, and coded errors.
//
// Projections are views; the wire format and decoded trees are unaffected
// by anything here.
package model
