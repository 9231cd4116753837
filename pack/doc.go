// Package pack implements the knowledge pack format: the serialized patterns
// of one classifier.
//
// # Format
//
// All integers are little endian.
//
//	offset size field
//	0      4    magic "PMEK"
//	4      2    version
//	6      1    compression (0 none, 1 lz4, 2 zstd, 3 snappy)
//	7      1    reserved
//	8      16   model id (UUID)
//	24     2    classifier id
//	26     4    pattern size
//	30     4    max patterns
//	34     2    class count
//	36     2    channel count
//	38     1    distance metric
//	39     1    classification mode
//	40     4    pattern count
//	44     4    body length (uncompressed)
//	48     4    payload length (as stored)
//	52     4    CRC32C of the uncompressed body
//	56          payload
//
// The body holds one record per pattern: category (2 bytes), influence
// (4 bytes) and the vector.
package pack
