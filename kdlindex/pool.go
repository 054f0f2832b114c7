package kdlindex

import "sync"

// Two pooled resources exist per spec §5.2: the UTF-8 byte buffer (when
// rented) and the metadata DB's row-storage buffer. Both are zeroed over
// their used range before being returned to the pool, since they may
// carry sensitive payload bytes. Modeled after the teacher's pool.go
// (sync.Pool-backed Get/Put pairs with reset-on-put).

var bytePool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, 0, 4096)
		return &b
	},
}

// getByteBuffer rents a []byte with at least the requested capacity.
func getByteBuffer(capacity int) *[]byte {
	bp := bytePool.Get().(*[]byte)
	if cap(*bp) < capacity {
		*bp = make([]byte, 0, capacity)
	}
	*bp = (*bp)[:0]
	return bp
}

// putByteBuffer zeroes the used range and returns the buffer to the pool.
func putByteBuffer(bp *[]byte) {
	if bp == nil {
		return
	}
	b := (*bp)[:cap(*bp)]
	for i := range b {
		b[i] = 0
	}
	*bp = b[:0]
	bytePool.Put(bp)
	diagLog.WithField("capacity", cap(b)).Debug("kdlindex: byte buffer returned to pool")
}

var rowPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, 0, 4096)
		return &b
	},
}

func getRowBuffer(capacity int) *[]byte {
	bp := rowPool.Get().(*[]byte)
	if cap(*bp) < capacity {
		*bp = make([]byte, 0, capacity)
	}
	*bp = (*bp)[:0]
	return bp
}

func putRowBuffer(bp *[]byte) {
	if bp == nil {
		return
	}
	b := (*bp)[:cap(*bp)]
	for i := range b {
		b[i] = 0
	}
	*bp = b[:0]
	rowPool.Put(bp)
	diagLog.WithField("capacity", cap(b)).Debug("kdlindex: row buffer returned to pool")
}
