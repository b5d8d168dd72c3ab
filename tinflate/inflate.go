// Package tinflate decodes DEFLATE (RFC 1951) streams, optionally wrapped in
// a zlib (RFC 1950) header.
//
// The decoder works into a caller-supplied output buffer and never writes past
// its end. When the buffer is too small the stream is still decoded to the end
// and the total length is reported, so callers can size a buffer with a first
// pass using a nil destination.
//
// Decompress handles a complete stream in one call. Stream decodes the same
// format from input arriving in arbitrary chunks: its state is an explicit
// step enum, so decoding suspends at any bit and resumes on the next Write.
package tinflate

import (
	"errors"
	"hash/crc32"
)

// Decoder errors.
var (
	// ErrCorrupt is returned for malformed compressed data.
	ErrCorrupt = errors.New("tinflate: corrupt stream")

	// ErrDictionary is returned for zlib streams that require a preset dictionary.
	ErrDictionary = errors.New("tinflate: preset dictionary not supported")

	// ErrTruncated is returned by the one-shot functions when the input ends
	// before the final block.
	ErrTruncated = errors.New("tinflate: unexpected end of stream")

	// ErrFinished is returned by Stream.Write after the stream has completed.
	ErrFinished = errors.New("tinflate: write after end of stream")
)

// Code maps a decoder error to its negative numeric code. It returns 0 for nil
// and -1 for errors that are not decoder errors.
func Code(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrCorrupt):
		return -1
	case errors.Is(err, ErrDictionary):
		return -2
	case errors.Is(err, ErrTruncated):
		return -3
	case errors.Is(err, ErrFinished):
		return -4
	}
	return -1
}

// Decompress decodes the complete stream in src into dst. It returns the
// total decompressed length, which may exceed len(dst).
func Decompress(src, dst []byte) (int, error) {
	n, _, _, err := DecompressCRC(src, dst)
	return n, err
}

// DecompressCRC is like Decompress and also returns the CRC-32 (IEEE) of the
// output. The checksum is valid only when the whole output fit in dst.
func DecompressCRC(src, dst []byte) (n int, crc uint32, crcValid bool, err error) {
	var s Stream
	done, err := s.Write(src, dst)
	if err != nil {
		return 0, 0, false, err
	}
	if !done {
		return 0, 0, false, ErrTruncated
	}
	crc, crcValid = s.CRC()
	return s.Len(), crc, crcValid, nil
}

type step uint8

const (
	stHeader step = iota
	stBlockHeader
	stStoredHeader
	stStored
	stDynamicCounts
	stCodeLenLens
	stLens
	stSymbol
	stLenExtra
	stDistSymbol
	stDistExtra
	stDone
	stFailed
)

// Stream is an incremental decoder. The zero value is ready to use.
//
// The same dst must be passed to every Write of one stream: back-references
// are resolved against the bytes already written there.
type Stream struct {
	step step
	err  error

	bits  uint64
	nbits uint

	in  []byte
	pos int

	final bool
	lit   *huffman
	dist  *huffman

	// dynamic block header
	nlit, ndist, nclen int
	idx                int
	pending            int // code-length repeat symbol awaiting its extra bits, or -1
	lengths            [maxLitCodes + maxDistSyms]uint8
	clen, dynLit       huffman
	dynDist            huffman

	stored int // bytes left in the current stored block
	sym    int
	length int

	out   int
	crc   uint32
	crcOK bool
}

// Reset returns s to its zero state.
func (s *Stream) Reset() {
	*s = Stream{}
}

// Len returns the number of bytes decoded so far, including bytes that did
// not fit in the output buffer.
func (s *Stream) Len() int { return s.out }

// Done reports whether the final block has been decoded.
func (s *Stream) Done() bool { return s.step == stDone }

// CRC returns the CRC-32 of the output once the stream is complete. ok is
// false while decoding is in progress or when the output was truncated.
func (s *Stream) CRC() (crc uint32, ok bool) {
	return s.crc, s.crcOK
}

// Write decodes all of src into dst. It returns done=true once the final
// block has been decoded; trailing input after that, such as a zlib checksum,
// is ignored. With done=false and a nil error the decoder needs more input.
// Errors are sticky.
func (s *Stream) Write(src, dst []byte) (done bool, err error) {
	switch s.step {
	case stDone:
		return true, ErrFinished
	case stFailed:
		return false, s.err
	}
	s.in, s.pos = src, 0
	defer func() { s.in = nil }()

	for {
		more, err := s.advance(dst)
		if err != nil {
			s.step, s.err = stFailed, err
			return false, err
		}
		if s.step == stDone {
			if s.out <= len(dst) {
				s.crc, s.crcOK = crc32.ChecksumIEEE(dst[:s.out]), true
			}
			return true, nil
		}
		if !more {
			return false, nil
		}
	}
}

// fill loads input bytes until at least n bits are buffered. It reports
// whether that succeeded; on failure all input has been consumed.
func (s *Stream) fill(n uint) bool {
	for s.nbits < n {
		if s.pos >= len(s.in) {
			return false
		}
		s.bits |= uint64(s.in[s.pos]) << s.nbits
		s.pos++
		s.nbits += 8
	}
	return true
}

// take consumes n buffered bits.
func (s *Stream) take(n uint) int {
	v := int(s.bits & (1<<n - 1))
	s.bits >>= n
	s.nbits -= n
	return v
}

// decode reads one symbol from h. ok is false when more input is needed, in
// which case no bits are consumed.
func (s *Stream) decode(h *huffman) (sym int, ok bool, err error) {
	s.fill(maxBits)
	code, first, index := 0, 0, 0
	for l := uint(1); l <= maxBits; l++ {
		if l > s.nbits {
			return 0, false, nil
		}
		code |= int(s.bits>>(l-1)) & 1
		count := int(h.count[l])
		if code-first < count {
			s.take(l)
			return int(h.symbol[index+code-first]), true, nil
		}
		index += count
		first += count
		first <<= 1
		code <<= 1
	}
	return 0, false, ErrCorrupt
}

func (s *Stream) emit(dst []byte, b byte) {
	if s.out < len(dst) {
		dst[s.out] = b
	}
	s.out++
}

// advance runs one step of the state machine. more is false when the step is
// blocked on input.
func (s *Stream) advance(dst []byte) (more bool, err error) {
	switch s.step {
	case stHeader:
		if !s.fill(16) {
			return false, nil
		}
		cmf, flg := int(s.bits&0xff), int(s.bits>>8&0xff)
		if cmf&0x0f == 8 && cmf>>4 <= 7 && (cmf<<8|flg)%31 == 0 {
			if flg&0x20 != 0 {
				return false, ErrDictionary
			}
			s.take(16)
		}
		s.step = stBlockHeader

	case stBlockHeader:
		if !s.fill(3) {
			return false, nil
		}
		s.final = s.take(1) == 1
		switch s.take(2) {
		case 0:
			s.take(s.nbits & 7)
			s.step = stStoredHeader
		case 1:
			s.lit, s.dist = &fixedLit, &fixedDist
			s.step = stSymbol
		case 2:
			s.step = stDynamicCounts
		default:
			return false, ErrCorrupt
		}

	case stStoredHeader:
		if !s.fill(32) {
			return false, nil
		}
		n, nn := s.take(16), s.take(16)
		if n != ^nn&0xffff {
			return false, ErrCorrupt
		}
		s.stored = n
		s.step = stStored

	case stStored:
		for s.stored > 0 {
			switch {
			case s.nbits >= 8:
				s.emit(dst, byte(s.take(8)))
			case s.pos < len(s.in):
				s.emit(dst, s.in[s.pos])
				s.pos++
			default:
				return false, nil
			}
			s.stored--
		}
		s.endBlock()

	case stDynamicCounts:
		if !s.fill(14) {
			return false, nil
		}
		s.nlit = s.take(5) + 257
		s.ndist = s.take(5) + 1
		s.nclen = s.take(4) + 4
		if s.nlit > 286 || s.ndist > 30 {
			return false, ErrCorrupt
		}
		s.lengths = [maxLitCodes + maxDistSyms]uint8{}
		s.idx = 0
		s.step = stCodeLenLens

	case stCodeLenLens:
		for ; s.idx < s.nclen; s.idx++ {
			if !s.fill(3) {
				return false, nil
			}
			s.lengths[codeLenOrder[s.idx]] = uint8(s.take(3))
		}
		if s.clen.build(s.lengths[:maxCodeLens]) != 0 {
			return false, ErrCorrupt
		}
		s.lengths = [maxLitCodes + maxDistSyms]uint8{}
		s.idx, s.pending = 0, -1
		s.step = stLens

	case stLens:
		return s.readLengths()

	case stSymbol:
		sym, ok, err := s.decode(s.lit)
		if err != nil || !ok {
			return false, err
		}
		switch {
		case sym < 256:
			s.emit(dst, byte(sym))
		case sym == 256:
			s.endBlock()
		default:
			sym -= 257
			if sym >= len(lengthBase) {
				return false, ErrCorrupt
			}
			s.sym = sym
			s.step = stLenExtra
		}

	case stLenExtra:
		n := uint(lengthExtra[s.sym])
		if !s.fill(n) {
			return false, nil
		}
		s.length = int(lengthBase[s.sym]) + s.take(n)
		s.step = stDistSymbol

	case stDistSymbol:
		sym, ok, err := s.decode(s.dist)
		if err != nil || !ok {
			return false, err
		}
		if sym >= len(distBase) {
			return false, ErrCorrupt
		}
		s.sym = sym
		s.step = stDistExtra

	case stDistExtra:
		n := uint(distExtra[s.sym])
		if !s.fill(n) {
			return false, nil
		}
		d := int(distBase[s.sym]) + s.take(n)
		if d > s.out {
			return false, ErrCorrupt
		}
		s.copyMatch(dst, d)
		s.step = stSymbol
	}
	return true, nil
}

// copyMatch repeats s.length bytes from distance d back. Bytes that would
// land past the end of dst are counted but not written.
func (s *Stream) copyMatch(dst []byte, d int) {
	n := min(s.length, max(len(dst)-s.out, 0))
	for i := 0; i < n; i++ {
		dst[s.out+i] = dst[s.out-d+i]
	}
	s.out += s.length
}

func (s *Stream) endBlock() {
	if s.final {
		s.step = stDone
	} else {
		s.step = stBlockHeader
	}
}

// readLengths decodes the literal/length and distance code lengths of a
// dynamic block using the code-length code.
func (s *Stream) readLengths() (bool, error) {
	total := s.nlit + s.ndist
	for s.idx < total {
		if s.pending < 0 {
			sym, ok, err := s.decode(&s.clen)
			if err != nil || !ok {
				return false, err
			}
			if sym < 16 {
				s.lengths[s.idx] = uint8(sym)
				s.idx++
				continue
			}
			s.pending = sym
		}

		var (
			val   uint8
			n     uint
			base  int
			extra int
		)
		switch s.pending {
		case 16:
			if s.idx == 0 {
				return false, ErrCorrupt
			}
			val, n, base = s.lengths[s.idx-1], 2, 3
		case 17:
			n, base = 3, 3
		default:
			n, base = 7, 11
		}
		if !s.fill(n) {
			return false, nil
		}
		extra = base + s.take(n)
		if s.idx+extra > total {
			return false, ErrCorrupt
		}
		for ; extra > 0; extra-- {
			s.lengths[s.idx] = val
			s.idx++
		}
		s.pending = -1
	}

	if s.lengths[256] == 0 {
		return false, ErrCorrupt
	}
	if left := s.dynLit.build(s.lengths[:s.nlit]); !s.dynLit.acceptable(left) {
		return false, ErrCorrupt
	}
	if left := s.dynDist.build(s.lengths[s.nlit:total]); !s.dynDist.acceptable(left) {
		return false, ErrCorrupt
	}
	s.lit, s.dist = &s.dynLit, &s.dynDist
	s.step = stSymbol
	return true, nil
}
