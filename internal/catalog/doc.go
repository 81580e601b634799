// Package catalog maps ROM digests to the releases the converter knows about.
//
// The table is compiled into the binary and never changes at runtime. Lookup
// is an exact match on the normalized digest; a miss yields an Identity with
// Known set to false and is never an error. Callers treat the identity as
// advisory metadata: the conversion engine remains the authority on whether
// a ROM can be processed.
package catalog
