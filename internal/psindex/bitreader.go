package psindex

type bitReader struct {
	data []byte
	pos  int
	bit  uint8
}

func newBitReader(data []byte) *bitReader {
	return &bitReader{data: data}
}

// readBits returns the next n bits MSB first, or ^uint64(0) when the data
// runs out.
func (br *bitReader) readBits(n uint8) uint64 {
	var value uint64
	for i := uint8(0); i < n; i++ {
		if br.pos >= len(br.data) {
			return ^uint64(0)
		}
		bit := (br.data[br.pos] >> (7 - br.bit)) & 1
		value = (value << 1) | uint64(bit)
		br.bit++
		if br.bit == 8 {
			br.bit = 0
			br.pos++
		}
	}
	return value
}

func (br *bitReader) skipBits(n uint8) {
	_ = br.readBits(n)
}
