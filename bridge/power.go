package bridge

import (
	average "github.com/RobinUS2/golang-moving-average"

	"rego600mqtt/rego"
)

// powerKeys is the publication order of the power topics. The topic
// keys are fixed regardless of how the auxiliary stages are labeled for
// the pump size.
var powerKeys = []string{
	"compressor",
	"add_heat_3kw",
	"add_heat_6kw",
	"pump_p1",
	"pump_p2",
	"pump_p3",
}

// Sweeps averaged for the smoothed power topic: five minutes at the
// default full-sweep cadence.
const powerAverageWindow = 20

func newPowerAverage() *average.MovingAverage {
	return average.New(powerAverageWindow)
}

type powerReading struct {
	Components map[string]int // watts per consumer
	Total      int
}

// readPower polls the six consumer state registers and folds the active
// ones through the pump profile wattage table. Components keyed by
// register address, so the 14/16 kW profiles contribute their
// relabeled auxiliary stages too. A component whose state could not be
// read this cycle counts as off.
func (b *Bridge) readPower() (*powerReading, error) {
	components := []struct {
		key      string
		register uint16
		watts    int
	}{
		{"compressor", rego.RegCompressor, b.Profile.CompressorW},
		{"add_heat_3kw", rego.RegAuxHeatLow, b.Profile.AuxHeatLowW},
		{"add_heat_6kw", rego.RegAuxHeatHigh, b.Profile.AuxHeatHighW},
		{"pump_p1", rego.RegRadiatorPumpP1, b.Profile.PumpP1W},
		{"pump_p2", rego.RegHeatCarrierPumpP2, b.Profile.PumpP2W},
		{"pump_p3", rego.RegGroundLoopPumpP3, b.Profile.PumpP3W},
	}
	reading := &powerReading{Components: make(map[string]int)}
	for _, c := range components {
		value, ok, err := b.Client.ReadSensor(c.register)
		if err != nil {
			return nil, err
		}
		watts := 0
		if ok && value == 1 {
			watts = c.watts
		}
		reading.Components[c.key] = watts
		reading.Total += watts
	}
	return reading, nil
}
