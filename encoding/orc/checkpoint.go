package orc

// A checkpoint packs a resumable position in a compressed stream into one
// int64: the file-relative offset of a compressed block in the high 32 bits
// and the decompressed offset within that block in the low 32 bits. For
// uncompressed streams the block offset is always zero and the low half is
// the absolute position.

const checkpointOffsetMask = int64(1)<<32 - 1

// EncodeCheckpoint packs a (compressed block offset, decompressed offset) pair.
func EncodeCheckpoint(compressedBlockOffset, decompressedOffset int) int64 {
	return int64(compressedBlockOffset)<<32 | int64(decompressedOffset)&checkpointOffsetMask
}

// DecodeCheckpoint unpacks a checkpoint produced by EncodeCheckpoint.
func DecodeCheckpoint(checkpoint int64) (compressedBlockOffset, decompressedOffset int) {
	return int(checkpoint >> 32), int(checkpoint & checkpointOffsetMask)
}
