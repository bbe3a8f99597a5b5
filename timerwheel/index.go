package timerwheel

import (
	"fmt"

	"github.com/MauriceGit/skiplist"
)

// timerEntry is one scheduled timer, ordered within its second-bucket by the
// nanosecond offset into that second (and a tie-break sequence number for
// entries that land on the exact same nanosecond).
type timerEntry struct {
	id            ID
	nanosInSecond int64
	seq           uint64
	fire          func()
}

func (e *timerEntry) ExtractKey() float64 {
	return float64(e.nanosInSecond)*1e6 + float64(e.seq%1_000_000)
}

func (e *timerEntry) String() string {
	return fmt.Sprintf("timerEntry(id=%d)", e.id)
}

// secondBucket is the outer index's key: floor(expiry/second). Its value is
// an inner skip list ordering every entry expiring within that second.
type secondBucket struct {
	second int64
	inner  skiplist.SkipList
}

func (b *secondBucket) ExtractKey() float64 {
	return float64(b.second)
}

func (b *secondBucket) String() string {
	return fmt.Sprintf("secondBucket(%d)", b.second)
}

func newSecondBucket(second int64) *secondBucket {
	return &secondBucket{second: second, inner: skiplist.New()}
}
