package sde

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteroid-belt/eveuniverse/internal/cache"
)

const materialsJSON = `[
	{"typeID":603,"materialTypeID":34,"quantity":100},
	{"typeID":603,"materialTypeID":35,"quantity":50},
	{"typeID":18,"materialTypeID":34,"quantity":1}
]`

func TestTypeMaterials(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(materialsJSON))
	}))
	t.Cleanup(srv.Close)

	c := cache.NewMemory()
	src := New(Config{TypeMaterialsURL: srv.URL, CacheTTL: time.Hour}, c)

	rows, err := src.TypeMaterials(context.Background(), 603)
	require.NoError(t, err)
	assert.Equal(t, []TypeMaterial{
		{TypeID: 603, MaterialTypeID: 34, Quantity: 100},
		{TypeID: 603, MaterialTypeID: 35, Quantity: 50},
	}, rows)

	rows, err = src.TypeMaterials(context.Background(), 999)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, int32(1), hits.Load())

	// A fresh source reads the raw file from the cache.
	again := New(Config{TypeMaterialsURL: srv.URL}, c)
	rows, err = again.TypeMaterials(context.Background(), 18)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, int32(1), hits.Load())
}

func TestTypeMaterials_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := New(Config{TypeMaterialsURL: srv.URL}, nil).TypeMaterials(context.Background(), 603)
	assert.Error(t, err)
}

func TestUnits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"unitID":1,"unitName":"Length","displayName":"m","description":"Meter"},
			{"unitID":11,"unitName":"Velocity","displayName":"m/sec","description":"Meters per second"}
		]`))
	}))
	t.Cleanup(srv.Close)

	units, err := New(Config{UnitsURL: srv.URL}, cache.NewMemory()).Units(context.Background())
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, Unit{UnitID: 11, UnitName: "Velocity", DisplayName: "m/sec", Description: "Meters per second"}, units[1])
}

func TestUnits_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"unitID":`))
	}))
	t.Cleanup(srv.Close)

	_, err := New(Config{UnitsURL: srv.URL}, nil).Units(context.Background())
	assert.ErrorContains(t, err, "decode units")
}
