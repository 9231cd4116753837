// Package conv provides safe integer type conversion utilities.
//
// Used where sizes cross a width boundary: pool indices (int32 links), pack
// headers read from untrusted blobs, and classifier ids.
package conv
