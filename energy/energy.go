// Package energy tracks the accumulated energy consumption of the heat
// pump across process restarts.
package energy

import (
	"encoding/json"
	"math"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultSaveInterval is how often the running total is persisted.
const DefaultSaveInterval = 600 * time.Second

type state struct {
	EnergyTotalKWh float64 `json:"energy_total_kwh"`
}

// Accumulator integrates instantaneous power over wall-clock time into
// a running kWh total and persists it to a small JSON state file. It is
// owned by the full-sweep loop; single writer, no locking.
type Accumulator struct {
	path            string
	total           float64
	lastIntegration time.Time
	lastSave        time.Time
	saveInterval    time.Duration
}

// Load restores the accumulator from the state file. A missing or
// unreadable file starts the total at zero.
func Load(path string, now time.Time) *Accumulator {
	a := &Accumulator{
		path:            path,
		lastIntegration: now,
		lastSave:        now,
		saveInterval:    DefaultSaveInterval,
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("could not read %s: %s", path, err)
		}
		return a
	}
	var s state
	if err := json.Unmarshal(data, &s); err != nil {
		log.Warnf("could not parse %s: %s", path, err)
		return a
	}
	a.total = s.EnergyTotalKWh
	return a
}

// Total returns the accumulated energy in kWh.
func (a *Accumulator) Total() float64 {
	return a.total
}

// Integrate folds powerW watts held since the last integration into the
// total and returns the new value.
func (a *Accumulator) Integrate(powerW float64, now time.Time) float64 {
	dtHours := now.Sub(a.lastIntegration).Hours()
	if dtHours > 0 {
		a.total += powerW * dtHours / 1000.0
	}
	a.lastIntegration = now
	return a.total
}

// MaybeSave persists the total if the save cadence has elapsed.
func (a *Accumulator) MaybeSave(now time.Time) {
	if now.Sub(a.lastSave) < a.saveInterval {
		return
	}
	a.Save()
	a.lastSave = now
}

// Save writes the state file. Failures are logged and dropped; losing
// one save costs at most one cadence worth of integration.
func (a *Accumulator) Save() {
	data, err := json.Marshal(state{EnergyTotalKWh: math.Round(a.total*1000) / 1000})
	if err == nil {
		err = os.WriteFile(a.path, data, 0644)
	}
	if err != nil {
		log.Warnf("could not save %s: %s", a.path, err)
	}
}
