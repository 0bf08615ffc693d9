package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contractTTL is short so backends on a wall clock can sleep through it.
const contractTTL = 2 * time.Second

// storeFactory returns a fresh, empty store and a function that moves its clock forward.
type storeFactory func(t *testing.T) (Store, func(time.Duration))

// testStoreContract runs the behaviour every backend must share.
func testStoreContract(t *testing.T, newStore storeFactory) {
	t.Run("set get expire", func(t *testing.T) {
		ctx := context.Background()
		st, advance := newStore(t)

		require.NoError(t, st.Set(ctx, "s1", "flag", "v", contractTTL))

		v, ok, err := st.Get(ctx, "s1", "flag")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v", v)

		advance(contractTTL - 500*time.Millisecond)
		_, ok, err = st.Get(ctx, "s1", "flag")
		require.NoError(t, err)
		assert.True(t, ok)

		advance(500 * time.Millisecond)
		_, ok, err = st.Get(ctx, "s1", "flag")
		require.NoError(t, err)
		assert.False(t, ok, "flag must expire at ttl")
	})

	t.Run("zero ttl never expires", func(t *testing.T) {
		ctx := context.Background()
		st, advance := newStore(t)

		require.NoError(t, st.Set(ctx, "s1", "flag", "v", 0))
		advance(2 * contractTTL)

		_, ok, err := st.Get(ctx, "s1", "flag")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("set overwrites", func(t *testing.T) {
		ctx := context.Background()
		st, _ := newStore(t)

		require.NoError(t, st.Set(ctx, "s1", "flag", "a", 0))
		require.NoError(t, st.Set(ctx, "s1", "flag", "b", 0))

		v, _, err := st.Get(ctx, "s1", "flag")
		require.NoError(t, err)
		assert.Equal(t, "b", v)
	})

	t.Run("delete keys and session", func(t *testing.T) {
		ctx := context.Background()
		st, _ := newStore(t)

		require.NoError(t, st.Set(ctx, "s1", "a", "1", 0))
		require.NoError(t, st.Set(ctx, "s1", "b", "2", 0))
		require.NoError(t, st.Set(ctx, "s2", "a", "3", 0))

		require.NoError(t, st.Delete(ctx, "s1", "a"))
		_, ok, _ := st.Get(ctx, "s1", "a")
		assert.False(t, ok)
		_, ok, _ = st.Get(ctx, "s1", "b")
		assert.True(t, ok)

		require.NoError(t, st.Delete(ctx, "s1"))
		_, ok, _ = st.Get(ctx, "s1", "b")
		assert.False(t, ok)

		v, ok, _ := st.Get(ctx, "s2", "a")
		assert.True(t, ok, "other sessions are untouched")
		assert.Equal(t, "3", v)

		assert.NoError(t, st.Delete(ctx, "missing", "x"))
		assert.NoError(t, st.Delete(ctx, "missing"))
	})

	t.Run("compare and set", func(t *testing.T) {
		ctx := context.Background()
		st, advance := newStore(t)

		ok, err := st.CompareAndSet(ctx, "s1", "flag", "", "v1", contractTTL)
		require.NoError(t, err)
		assert.True(t, ok, "absent flag can be claimed")

		ok, err = st.CompareAndSet(ctx, "s1", "flag", "", "v2", contractTTL)
		require.NoError(t, err)
		assert.False(t, ok, "live flag cannot be claimed again")

		ok, err = st.CompareAndSet(ctx, "s1", "flag", "other", "v2", contractTTL)
		require.NoError(t, err)
		assert.False(t, ok, "stale old value")

		ok, err = st.CompareAndSet(ctx, "s1", "flag", "v1", "v2", contractTTL)
		require.NoError(t, err)
		assert.True(t, ok)
		v, _, _ := st.Get(ctx, "s1", "flag")
		assert.Equal(t, "v2", v)

		advance(contractTTL)
		ok, err = st.CompareAndSet(ctx, "s1", "flag", "v2", "v3", contractTTL)
		require.NoError(t, err)
		assert.False(t, ok, "expired flag no longer holds its value")

		ok, err = st.CompareAndSet(ctx, "s1", "flag", "", "v3", contractTTL)
		require.NoError(t, err)
		assert.True(t, ok, "expired flag counts as absent")
	})

	t.Run("concurrent claims have one winner", func(t *testing.T) {
		ctx := context.Background()
		st, _ := newStore(t)

		const callers = 10
		var wins int32
		start := make(chan struct{})
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				ok, err := st.CompareAndSet(ctx, "s1", "flag", "", "claimed", 0)
				assert.NoError(t, err)
				if ok {
					atomic.AddInt32(&wins, 1)
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.Equal(t, int32(1), atomic.LoadInt32(&wins))
	})
}
