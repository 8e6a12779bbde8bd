package pool

import (
	"container/list"
	"encoding/binary"
	"time"
)

// wordSize is the granularity every block size is rounded up to. Device
// transaction contexts are word-addressed, so payloads never straddle a
// partial word.
const wordSize = 4

// Guard markers. The leading marker tags a block as handed out or free; the
// trailing word sits just past the rounded payload and catches writes that
// run off the end of the caller's buffer.
const (
	guardUsed   uint32 = 0xA110C8ED
	guardFree   uint32 = 0xF7EEB10C
	trailerMark uint32 = 0x7A11C0DE
)

// Block is a fixed-size unit handed out by a Pool. While held, the caller
// owns Bytes(); once released the block's payload area is dead and the block
// instead carries the time it was freed, which the purge scan keys on.
type Block struct {
	guard   uint32
	buf     []byte // rounded payload plus one trailing guard word
	size    int    // caller-requested size
	freedAt time.Time
	elem    *list.Element
	owner   *Pool
}

// Bytes returns the caller-visible payload. Valid only between Acquire and
// Release; writing past len(Bytes()) up to the rounded size is undetected,
// writing into the trailing guard word is reported on release.
func (b *Block) Bytes() []byte {
	return b.buf[:b.size]
}

// Size returns the caller-requested block size.
func (b *Block) Size() int {
	return b.size
}

// roundUp rounds n up to the next word boundary. A zero-byte request is
// promoted to one word.
func roundUp(n int) int {
	if n <= 0 {
		return wordSize
	}
	return (n + wordSize - 1) &^ (wordSize - 1)
}

// stampTrailer writes the trailing guard word past the rounded payload.
func stampTrailer(buf []byte) {
	binary.LittleEndian.PutUint32(buf[len(buf)-wordSize:], trailerMark)
}

// trailerIntact reports whether the trailing guard word survived the
// caller's use of the block.
func trailerIntact(buf []byte) bool {
	return binary.LittleEndian.Uint32(buf[len(buf)-wordSize:]) == trailerMark
}
