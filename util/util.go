package util

import (
	"math/rand"
	"sync"
	"time"
)

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func RandHexStr(length int) string {
	const hexStr = "0123456789abcdef"
	b := make([]byte, length)

	rngMu.Lock()
	for i := range b {
		b[i] = hexStr[rng.Intn(len(hexStr))]
	}
	rngMu.Unlock()

	return string(b)
}

// NewGuid allocates a time-ordered numeric guid. Callers may also supply
// their own guid at boost creation, verified by checksum.
func NewGuid() uint64 {
	rngMu.Lock()
	n := rng.Intn(1 << 20)
	rngMu.Unlock()

	return uint64(time.Now().UnixNano()/int64(time.Millisecond))<<20 | uint64(n)
}

func NowMillis() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}
