// Package snapshot checkpoints a data collection to a single CBOR document
// and restores it.
//
// Array buffers are packed by dataarray.Encode, compressed per array (lz4 or
// zstd, falling back to none when the data does not shrink) and protected by
// a BLAKE3 digest of the uncompressed bytes that is verified on decode.
// Arrays that are not allocated are stored as metadata only.
package snapshot
