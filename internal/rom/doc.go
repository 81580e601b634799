// Package rom loads cartridge images and derives the content fingerprint used
// to identify them.
//
// Images are normalized to big-endian (.z64) byte order on load so the
// digest matches the catalog and the conversion engine regardless of whether
// the dump was byte-swapped (.v64) or little-endian (.n64). The digest is a
// lowercase SHA-1 hex string; it identifies content and is not a security
// primitive.
//
// Primary entry points:
//   - Digest: fingerprint an arbitrary byte slice
//   - Load / FromBytes: build an immutable Image
//   - ParseHeader: read the cartridge header fields
package rom
