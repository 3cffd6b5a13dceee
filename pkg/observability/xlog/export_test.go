package xlog

import "sync/atomic"

func newCounter() *atomic.Uint64 { return new(atomic.Uint64) }
