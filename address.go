package dsstore

// blockAddress is a packed buddy-allocator block address: the low 5 bits
// are the size exponent p (block size = 2^p, p >= 5) and the upper 27
// bits are the file offset.
type blockAddress uint32

const addressSizeMask = 0x1F

// encodeAddress packs offset and p into a blockAddress. It requires
// offset to be a multiple of 2^p and 5 <= p <= 31, validating what a
// bare `offset | p` construction would otherwise leave unchecked.
func encodeAddress(offset uint32, p uint32) (blockAddress, error) {
	if p < 5 || p > 31 {
		return 0, newErr(InvalidBlockAddress, "size exponent %d out of range [5,31]", p)
	}
	if offset&addressSizeMask != 0 {
		return 0, newErr(InvalidBlockAddress, "offset 0x%X is not 32-byte aligned", offset)
	}
	size := uint32(1) << p
	if offset%size != 0 {
		return 0, newErr(InvalidBlockAddress, "offset 0x%X is not aligned to block size %d", offset, size)
	}
	return blockAddress(offset | p), nil
}

// decodeAddress splits a blockAddress back into its offset and size. It
// fails if the embedded exponent is below the minimum block size or if
// the offset isn't aligned to the decoded size.
func decodeAddress(a blockAddress) (offset uint32, size uint32, err error) {
	p := uint32(a) & addressSizeMask
	if p < 5 {
		return 0, 0, newErr(InvalidBlockAddress, "size exponent %d below minimum 5", p)
	}
	offset = uint32(a) &^ addressSizeMask
	size = uint32(1) << p
	if offset%size != 0 {
		return 0, 0, newErr(InvalidBlockAddress, "offset 0x%X is not a multiple of decoded size %d", offset, size)
	}
	return offset, size, nil
}

// smallestPowerOfTwoAtLeast returns the smallest p such that 2^p >= n and
// p >= minExp.
func smallestPowerOfTwoAtLeast(n uint32, minExp uint32) uint32 {
	p := minExp
	for (uint32(1) << p) < n {
		p++
	}
	return p
}
