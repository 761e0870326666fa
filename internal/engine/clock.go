package engine

import "time"

// Clock supplies the ledger timestamp, in seconds.
type Clock interface {
	Now() uint64
}

// SystemClock reads wall-clock time.
type SystemClock struct{}

func (SystemClock) Now() uint64 { return uint64(time.Now().Unix()) }

// FixedClock always returns the same instant.
type FixedClock uint64

func (c FixedClock) Now() uint64 { return uint64(c) }
