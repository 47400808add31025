package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsValidate(t *testing.T) {
	opts := NewDefaultOptions("cache")
	require.NoError(t, opts.Validate())

	cases := []struct {
		name   string
		mutate func(*Options)
	}{
		{"empty name", func(o *Options) { o.Name = "" }},
		{"empty addr", func(o *Options) { o.Addr = "" }},
		{"negative db", func(o *Options) { o.DB = -1 }},
		{"zero dial timeout", func(o *Options) { o.DialTimeout = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := NewDefaultOptions("cache")
			tc.mutate(opts)
			assert.Error(t, opts.Validate())
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := NewDefaultOptions("cache")
	assert.Equal(t, "cache", opts.Name)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 5*time.Second, opts.DialTimeout)
	assert.Equal(t, 10, opts.PoolSize)
}

func TestFactoryRejectsUnknownClient(t *testing.T) {
	factory := NewClientFactory(*NewDefaultOptions("cache"))
	_, err := factory.GetOrCreate("sessions")
	assert.ErrorContains(t, err, "not configured")
}

func TestFactoryNames(t *testing.T) {
	factory := NewClientFactory(
		*NewDefaultOptions("cache"),
		*NewDefaultOptions("sessions"),
	)
	assert.ElementsMatch(t, []string{"cache", "sessions"}, factory.Names())
}

func TestFactoryCloseWithoutClients(t *testing.T) {
	factory := NewClientFactory(*NewDefaultOptions("cache"))
	assert.NoError(t, factory.Close())
}

func TestBuilderRejectsInvalidConfiguration(t *testing.T) {
	assert.Panics(t, func() {
		NewBuilder().AddClient("cache", func(o *Options) { o.Addr = "" })
	})
}

func TestComponentName(t *testing.T) {
	assert.Equal(t, "redis.cache", ComponentName("cache"))
}
