package energy_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rego600mqtt/energy"
)

func statePath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "energy_total.json")
}

func TestLoadMissingFile(t *testing.T) {
	a := energy.Load(statePath(t), time.Now())
	assert.Equal(t, 0.0, a.Total())
}

func TestLoadCorruptFile(t *testing.T) {
	path := statePath(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	a := energy.Load(path, time.Now())
	assert.Equal(t, 0.0, a.Total())
}

// 1000 W held for exactly one hour accumulates exactly 1 kWh.
func TestIntegrate(t *testing.T) {
	t0 := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	a := energy.Load(statePath(t), t0)

	total := a.Integrate(1000, t0.Add(3600*time.Second))
	assert.InDelta(t, 1.0, total, 1e-9)

	// zero power adds nothing
	total = a.Integrate(0, t0.Add(2*time.Hour))
	assert.InDelta(t, 1.0, total, 1e-9)

	// a clock that did not advance adds nothing
	total = a.Integrate(5000, t0.Add(2*time.Hour))
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestSaveAndReload(t *testing.T) {
	path := statePath(t)
	t0 := time.Now()
	a := energy.Load(path, t0)
	a.Integrate(1500, t0.Add(time.Hour))
	a.Save()

	b := energy.Load(path, t0)
	assert.InDelta(t, 1.5, b.Total(), 0.0005)
}

func TestMaybeSaveCadence(t *testing.T) {
	path := statePath(t)
	t0 := time.Now()
	a := energy.Load(path, t0)
	a.Integrate(1000, t0.Add(time.Hour))

	// before the cadence nothing is written
	a.MaybeSave(t0.Add(time.Minute))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// after the cadence the state file appears
	a.MaybeSave(t0.Add(601 * time.Second))
	_, err = os.Stat(path)
	require.NoError(t, err)

	b := energy.Load(path, t0)
	assert.InDelta(t, 1.0, b.Total(), 0.0005)
}
