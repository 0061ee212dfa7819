package monolith

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/arbitrage-dashboard/internal/config"
	"github.com/fd1az/arbitrage-dashboard/internal/di"
)

type recordingModule struct {
	name     string
	startErr error
	events   *[]string
}

func (m recordingModule) RegisterServices(c di.Container) error {
	c.Register("module."+m.name, m.name)
	return nil
}

func (m recordingModule) Startup(_ context.Context, mono Monolith) error {
	*m.events = append(*m.events, "start:"+m.name)
	return m.startErr
}

func (m recordingModule) Shutdown(context.Context) error {
	*m.events = append(*m.events, "stop:"+m.name)
	return nil
}

func TestApp_SharedServices(t *testing.T) {
	cfg := &config.Config{}
	app := New(cfg, nil)

	assert.Same(t, cfg, app.Config())
	assert.Same(t, cfg, app.Services().Get(ConfigKey))
	assert.NotNil(t, app.Health())
	assert.True(t, app.Services().Has(LoggerKey))
}

func TestApp_StartStopOrder(t *testing.T) {
	var events []string
	app := New(&config.Config{}, nil)
	a := recordingModule{name: "a", events: &events}
	b := recordingModule{name: "b", events: &events}

	require.NoError(t, app.RegisterModules(a, b))
	assert.Equal(t, "a", app.Services().Get("module.a"))

	require.NoError(t, app.StartModules(context.Background(), a, b))
	require.NoError(t, app.StopModules(context.Background()))

	assert.Equal(t, []string{"start:a", "start:b", "stop:b", "stop:a"}, events)
}

func TestApp_FailedStartupStopsStarted(t *testing.T) {
	var events []string
	app := New(&config.Config{}, nil)
	a := recordingModule{name: "a", events: &events}
	b := recordingModule{name: "b", events: &events, startErr: errors.New("boom")}

	err := app.StartModules(context.Background(), a, b)
	require.Error(t, err)
	assert.Equal(t, []string{"start:a", "start:b", "stop:a"}, events)
}
