// Package sb implements decoding for the superbundle binary container
// format used by Frostbite-style game data (.sb and .toc files).
//
// A container is an optionally obfuscated byte stream holding one
// self-describing tree of typed values (lists, dictionaries, integers,
// binary strings, UUID and SHA1 references). Obfuscated containers are
// detected by a fixed magic prefix and decrypted with a keystream XOR
// pre-pass before decoding.
//
// Decoding is pure: it consumes an in-memory buffer with a forward-only
// cursor and never mutates shared state, so independent decodes may run
// concurrently. Decoded trees are read-only and safe to share.
package sb
