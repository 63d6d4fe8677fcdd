package versions_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/reganan/icestore/internal/versions"
	"github.com/stretchr/testify/assert"
)

func TestMap_ZeroIsNeverProcessed(t *testing.T) {
	m := versions.New("load")
	assert.False(t, m.Advance("load", 0))
	assert.Zero(t, m.Get("load"))
}

func TestMap_AdvanceOnlyMovesForward(t *testing.T) {
	m := versions.New("load")

	assert.True(t, m.Advance("load", 1))
	assert.False(t, m.Advance("load", 1), "same version is processed once")
	assert.True(t, m.Advance("load", 2))
	assert.False(t, m.Advance("load", 1), "older version never rewinds")
	assert.Equal(t, uint64(2), m.Get("load"))
}

func TestMap_KeysAreIndependent(t *testing.T) {
	m := versions.New("a", "b")
	assert.True(t, m.Advance("a", 1))
	assert.True(t, m.Advance("b", 1))
	assert.True(t, m.Advance("unknown", 1))
}

func TestMap_ConcurrentAdvanceGrantsOnce(t *testing.T) {
	m := versions.New("k")
	var granted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.Advance("k", 7) {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), granted.Load())
}
