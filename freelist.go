package dsstore

import "sort"

// byteRange is a half-open [offset, offset+size) span of the address
// space used while planning a container's on-disk layout.
type byteRange struct {
	offset uint32
	size   uint32
}

func (r byteRange) end() uint32 { return r.offset + r.size }

// buildFreeLists covers the complement of allocated within [0, fileEnd)
// with power-of-two aligned blocks, bucketed by size exponent. allocated
// must include the implicit header reservation as an ordinary range.
func buildFreeLists(allocated []byteRange, fileEnd uint32) ([32][]uint32, error) {
	var lists [32][]uint32

	ranges := append([]byteRange{}, allocated...)
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].offset < ranges[j].offset })
	for i := 1; i < len(ranges); i++ {
		if ranges[i].offset < ranges[i-1].end() {
			return lists, newErr(CorruptedFile, "allocated ranges overlap: [%d,%d) and [%d,%d)",
				ranges[i-1].offset, ranges[i-1].end(), ranges[i].offset, ranges[i].end())
		}
	}

	cursor := uint32(0)
	for _, r := range ranges {
		if r.offset > cursor {
			if err := fillGap(&lists, cursor, r.offset); err != nil {
				return lists, err
			}
		}
		if r.end() > cursor {
			cursor = r.end()
		}
	}
	if cursor < fileEnd {
		if err := fillGap(&lists, cursor, fileEnd); err != nil {
			return lists, err
		}
	}
	return lists, nil
}

// fillGap greedily covers [start, end) with the largest aligned
// power-of-two block at each step, recording each block's offset in its
// bucket.
func fillGap(lists *[32][]uint32, start, end uint32) error {
	offset := start
	for offset < end {
		remaining := end - offset
		chosen := -1
		for p := 31; p >= 5; p-- {
			sz := uint32(1) << uint(p)
			if sz <= remaining && offset%sz == 0 {
				chosen = p
				break
			}
		}
		if chosen < 0 {
			return newErr(CorruptedFile, "unable to align free blocks: %d bytes remaining at offset %d", remaining, offset)
		}
		lists[chosen] = append(lists[chosen], offset)
		offset += uint32(1) << uint(chosen)
	}
	return nil
}
