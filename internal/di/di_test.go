package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct{ n int }

func TestContainer_FactoryIsLazySingleton(t *testing.T) {
	c := NewContainer()
	built := 0
	token := NewToken[*counter]("test.counter")

	RegisterToken(c, token, func(ServiceRegistry) *counter {
		built++
		return &counter{n: built}
	})

	assert.Equal(t, 0, built, "factory must not run before first Get")

	a := GetToken(c, token)
	b := GetToken(c, token)

	assert.Same(t, a, b)
	assert.Equal(t, 1, built)
}

func TestContainer_FactoriesResolveDependencies(t *testing.T) {
	c := NewContainer()
	c.Register("config", 42)

	token := NewToken[int]("test.derived")
	RegisterToken(c, token, func(sr ServiceRegistry) int {
		return sr.Get("config").(int) * 2
	})

	assert.Equal(t, 84, GetToken(c, token))
	assert.True(t, c.Has("config"))
	assert.False(t, c.Has("missing"))
}

func TestContainer_MissingServicePanics(t *testing.T) {
	c := NewContainer()
	require.Panics(t, func() { c.Get("nope") })
}
