package tinflate

const (
	maxBits     = 15  // longest Huffman code
	maxLitCodes = 288 // literal/length alphabet incl. the two unused fixed codes
	maxDistSyms = 32
	maxCodeLens = 19
)

// huffman is a canonical Huffman decoding table: the number of codes of each
// length and the symbols ordered by code.
type huffman struct {
	count  [maxBits + 1]uint16
	symbol [maxLitCodes]uint16
	used   int
}

// build fills h from a code-length array (RFC 1951 §3.2.2). It returns the
// number of unused codes: zero for a complete code, positive for an incomplete
// one and negative for an over-subscribed one.
func (h *huffman) build(lengths []uint8) int {
	h.count = [maxBits + 1]uint16{}
	for _, l := range lengths {
		h.count[l]++
	}
	h.used = len(lengths) - int(h.count[0])
	if h.used == 0 {
		return 0
	}

	left := 1
	for l := 1; l <= maxBits; l++ {
		left <<= 1
		left -= int(h.count[l])
		if left < 0 {
			return left
		}
	}

	var offs [maxBits + 1]uint16
	for l := 1; l < maxBits; l++ {
		offs[l+1] = offs[l] + h.count[l]
	}
	for sym, l := range lengths {
		if l != 0 {
			h.symbol[offs[l]] = uint16(sym)
			offs[l]++
		}
	}
	return left
}

// acceptable reports whether a table built with the given leftover is usable.
// Incomplete codes are only tolerated for the degenerate single-symbol case;
// empty tables are valid until a symbol is actually decoded from them.
func (h *huffman) acceptable(left int) bool {
	if left < 0 {
		return false
	}
	return left == 0 || h.used <= 1
}

var fixedLit, fixedDist huffman

func init() {
	var lengths [maxLitCodes]uint8
	for i := range lengths {
		switch {
		case i < 144:
			lengths[i] = 8
		case i < 256:
			lengths[i] = 9
		case i < 280:
			lengths[i] = 7
		default:
			lengths[i] = 8
		}
	}
	fixedLit.build(lengths[:])

	var dist [30]uint8
	for i := range dist {
		dist[i] = 5
	}
	fixedDist.build(dist[:])
}

// Length and distance base values and extra bit counts, RFC 1951 §3.2.5.
var (
	lengthBase = [29]uint16{
		3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31,
		35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258}
	lengthExtra = [29]uint8{
		0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
		3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0}
	distBase = [30]uint16{
		1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193,
		257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145,
		8193, 12289, 16385, 24577}
	distExtra = [30]uint8{
		0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
		7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13}

	// Order in which code-length code lengths are transmitted.
	codeLenOrder = [maxCodeLens]uint8{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}
)
