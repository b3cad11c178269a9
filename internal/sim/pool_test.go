package sim

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

func TestFramePool(t *testing.T) {
	pool := NewFramePool(4)

	buf := pool.Get()
	if len(buf) != 0 {
		t.Errorf("pool returned non-empty buffer: %d", len(buf))
	}

	buf = append(buf, dynamo.Drawable{Position: r2.Vec{X: 1}})
	pool.Put(buf)

	again := pool.Get()
	if len(again) != 0 {
		t.Error("pool did not reset buffer length")
	}
}
