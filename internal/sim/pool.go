package sim

import (
	"sync"

	"github.com/san-kum/partsim/internal/dynamo"
)

// FramePool recycles snapshot buffers between frames.
type FramePool struct {
	pool sync.Pool
	size int
}

func NewFramePool(capacity int) *FramePool {
	p := &FramePool{size: capacity}
	p.pool.New = func() interface{} {
		buf := make([]dynamo.Drawable, 0, p.size)
		return &buf
	}
	return p
}

// Get returns an empty buffer.
func (p *FramePool) Get() []dynamo.Drawable {
	return (*p.pool.Get().(*[]dynamo.Drawable))[:0]
}

func (p *FramePool) Put(buf []dynamo.Drawable) {
	if cap(buf) == 0 {
		return
	}
	buf = buf[:0]
	p.pool.Put(&buf)
}
