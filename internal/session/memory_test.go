package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryStore_Contract(t *testing.T) {
	testStoreContract(t, func(t *testing.T) (Store, func(time.Duration)) {
		clk := &fakeClock{t: time.Unix(1000, 0)}
		return NewMemoryStoreWithClock(clk.now), clk.advance
	})
}

func TestOpen_MemoryAndUnknownBackend(t *testing.T) {
	st, err := Open(context.Background(), Options{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, st)
	assert.NoError(t, st.Ping(context.Background()))

	_, err = Open(context.Background(), Options{Backend: "cassandra"})
	assert.Error(t, err)

	_, err = Open(context.Background(), Options{Backend: "postgres"})
	assert.Error(t, err, "postgres without DB_URL")

	_, err = Open(context.Background(), Options{Backend: "redis"})
	assert.Error(t, err, "redis without address")
}

func TestKey_NamespacesBySite(t *testing.T) {
	assert.Equal(t, "site1:abc", Key("site1", "abc"))
	assert.NotEqual(t, Key("site1", "abc"), Key("site2", "abc"))
	assert.Equal(t, "", Key("site1", ""))
}
