// Package hash provides the checksum used by knowledge packs.
//
// Every pack body is protected by a CRC32-Castagnoli (CRC32C) checksum over
// its uncompressed bytes. The same checksum is attached to S3 uploads so the
// object store can verify the transfer.
//
// For one-shot checksums:
//
//	sum := hash.CRC32C(body)
//
// For streaming checksums:
//
//	h := hash.NewCRC32C()
//	h.Write(header)
//	h.Write(body)
//	sum := h.Sum32()
package hash
