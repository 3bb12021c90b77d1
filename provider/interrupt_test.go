package provider

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbortRegistry_BlockUnblock(t *testing.T) {
	t.Parallel()

	r := NewAbortRegistry()
	r.Block("s1")
	assert.True(t, r.IsBlocked("s1"))

	r.Unblock("s1")
	assert.False(t, r.IsBlocked("s1"))
}

func TestAbortRegistry_UnsetSessionSafeNoOps(t *testing.T) {
	t.Parallel()

	r := NewAbortRegistry()
	assert.False(t, r.IsBlocked("never-seen"))
	r.Unblock("never-seen")
	r.Clear("never-seen")
	assert.False(t, r.IsBlocked("never-seen"))
}

func TestAbortRegistry_EmptySessionIgnored(t *testing.T) {
	t.Parallel()

	r := NewAbortRegistry()
	r.Block("")
	assert.False(t, r.IsBlocked(""))
}

func TestAbortRegistry_ClearAliasesUnblock(t *testing.T) {
	t.Parallel()

	r := NewAbortRegistry()
	r.Block("s1")
	r.Clear("s1")
	assert.False(t, r.IsBlocked("s1"))
}

func TestAbortRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	r := NewAbortRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Block("s")
				r.IsBlocked("s")
				r.Unblock("s")
			}
		}()
	}
	wg.Wait()
	assert.False(t, r.IsBlocked("s"))
}
