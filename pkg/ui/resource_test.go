package ui

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fd1az/arbitrage-dashboard/business/dashboard/app"
	"github.com/fd1az/arbitrage-dashboard/business/dashboard/domain"
)

func TestResource_Lifecycle(t *testing.T) {
	var r Resource[int]
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, r.Loading(), "initial load shows loading")
	assert.False(t, r.Failed())

	r.Apply(0, errors.New("boom"), at)
	assert.True(t, r.Failed())
	assert.False(t, r.Loading())

	r.Begin()
	assert.True(t, r.Loading(), "a retry shows loading again")
	assert.False(t, r.Failed())

	r.Apply(7, nil, at)
	assert.True(t, r.Loaded)
	assert.Equal(t, 7, r.Data)
	assert.Nil(t, r.Err)

	r.Begin()
	assert.False(t, r.Loading(), "a refresh keeps data on screen")
	assert.True(t, r.Refreshing)

	r.Apply(0, errors.New("later failure"), at.Add(time.Second))
	assert.Equal(t, 7, r.Data, "errors keep the last good data")
	assert.Error(t, r.Err)
	assert.False(t, r.Failed())
	assert.Equal(t, at, r.UpdatedAt)
}

func TestApplyUpdate_Cached(t *testing.T) {
	var r Resource[domain.TransactionPage]
	page := domain.TransactionPage{Page: 2, Limit: 20, Total: 50}

	applyUpdate(&r, app.Update{Resource: domain.ResourceHistory, Value: page, Cached: true})
	assert.True(t, r.Loaded)
	assert.True(t, r.Cached)
	assert.True(t, r.Refreshing)

	applyUpdate(&r, app.Update{Resource: domain.ResourceHistory, Value: page})
	assert.False(t, r.Cached)
	assert.False(t, r.Refreshing)
}

func TestApplyUpdate_WrongTypeIgnoredAsZero(t *testing.T) {
	var r Resource[[]domain.Alert]
	applyUpdate(&r, app.Update{Resource: domain.ResourceAlerts, Value: "nope"})
	assert.True(t, r.Loaded)
	assert.Empty(t, r.Data)
}
