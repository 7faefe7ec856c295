package parallel

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunks_CoversRangeOnce(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunk: 10}

	const n = 1003
	hits := make([]int32, n)
	var calls atomic.Int32
	Chunks(n, cfg, func(start, end int) {
		calls.Add(1)
		for i := start; i < end; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	})

	for i, h := range hits {
		assert.EqualValues(t, 1, h, "index %d", i)
	}
	assert.Greater(t, calls.Load(), int32(1))
}

func TestChunks_Sequential(t *testing.T) {
	for name, cfg := range map[string]Config{
		"disabled":    {Enabled: false, NumWorkers: 8, MinChunk: 1},
		"one worker":  {Enabled: true, NumWorkers: 1, MinChunk: 1},
		"small input": {Enabled: true, NumWorkers: 8, MinChunk: 1000},
	} {
		t.Run(name, func(t *testing.T) {
			var mu sync.Mutex
			var got [][2]int
			Chunks(100, cfg, func(start, end int) {
				mu.Lock()
				got = append(got, [2]int{start, end})
				mu.Unlock()
			})
			assert.Equal(t, [][2]int{{0, 100}}, got)
		})
	}
}

func TestChunks_Empty(t *testing.T) {
	Chunks(0, DefaultConfig(), func(int, int) {
		t.Fatal("called for empty range")
	})
}

func TestRows(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 3, MinChunk: 20}

	// 10 elements per row: chunks need at least 2 rows.
	var mu sync.Mutex
	var sizes []int
	Rows(9, 10, cfg, func(start, end int) {
		mu.Lock()
		sizes = append(sizes, end-start)
		mu.Unlock()
	})

	total := 0
	for _, s := range sizes {
		assert.GreaterOrEqual(t, s, 2)
		total += s
	}
	assert.Equal(t, 9, total)
	assert.Len(t, sizes, 3)
}
