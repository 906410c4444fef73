package rego

// System registers holding temperature and state sensors, in tenths of
// a degree or raw state counts.
var SensorMap = map[string]uint16{
	"Radiator Return GT1":  0x0209,
	"Radiator Target GT1":  0x006E,
	"Outdoor GT2":          0x020A,
	"Hot Water GT3":        0x020B,
	"Hot Water Target GT3": 0x002B,
	"Forward Target GT4":   0x006D,
	"Room GT5":             0x020D,
	"Compressor GT6":       0x020E,
	"Heat fluid out GT8":   0x020F,
	"Heat fluid in GT9":    0x0210,
	"Cold fluid in GT10":   0x0211,
	"Cold fluid out GT11":  0x0212,
	"GT3 On":               0x0073,
	"GT3 Off":              0x0074,
}

// Binary state registers shared by every pump size.
const (
	RegGroundLoopPumpP3  uint16 = 0x01FD
	RegCompressor        uint16 = 0x01FE
	RegAuxHeatLow        uint16 = 0x01FF
	RegAuxHeatHigh       uint16 = 0x0200
	RegRadiatorPumpP1    uint16 = 0x0203
	RegHeatCarrierPumpP2 uint16 = 0x0204
	RegThreeWayValve     uint16 = 0x0205
	RegAlarm             uint16 = 0x0206
	RegAddHeatPercent    uint16 = 0x006C
)

// BinarySensorMap returns the binary-sensor register table for a pump
// profile. The two auxiliary-heat stage registers are fixed; only their
// labels depend on the pump size (3kw/6kw vs 5kw/10kw).
func BinarySensorMap(p *PumpProfile) map[string]uint16 {
	m := map[string]uint16{
		"Three-way Valve":      RegThreeWayValve,
		"Add Heat Percentage":  RegAddHeatPercent,
		"Radiator Pump P1":     RegRadiatorPumpP1,
		"Heat carrier pump P2": RegHeatCarrierPumpP2,
		"Ground loop pump P3":  RegGroundLoopPumpP3,
		"Compressor":           RegCompressor,
		"Alarm":                RegAlarm,
	}
	m[p.AuxLowLabel] = RegAuxHeatLow
	m[p.AuxHighLabel] = RegAuxHeatHigh
	return m
}

// System registers holding user-adjustable settings.
var SettingsMap = map[string]uint16{
	"Heat curve":                0x0000,
	"Heat curve fine adj.":      0x0001,
	"Indoor temp setting":       0x0021,
	"Curve infl. by in-temp.":   0x0022,
	"Heat curve coupling diff.": 0x0002,
	"Adjust curve at +20° out":  0x001E,
	"Adjust curve at +15° out":  0x001C,
	"Adjust curve at +10° out":  0x001A,
	"Adjust curve at +5° out":   0x0018,
	"Adjust curve at 0° out":    0x0016,
	"Adjust curve at -5° out":   0x0014,
	"Adjust curve at -10° out":  0x0012,
	"Adjust curve at -15° out":  0x0010,
	"Adjust curve at -20° out":  0x000E,
	"Adjust curve at -25° out":  0x000C,
	"Adjust curve at -30° out":  0x000A,
	"Adjust curve at -35° out":  0x0008,
}

// Front-panel LED registers.
var LedMap = map[string]uint16{
	"LED1 Power On": 0x0012,
	"LED2 Pump":     0x0013,
	"LED3 Add Heat": 0x0014,
	"LED4 Boiler":   0x0015,
	"LED5 Alarm":    0x0016,
}

// Display row indexes for the READ_DISPLAY command.
var DisplayRows = map[string]uint16{
	"Row 1": 0x0000,
	"Row 2": 0x0001,
	"Row 3": 0x0002,
	"Row 4": 0x0003,
}

// Front-panel keypad registers.
const (
	RegKey1  uint16 = 0x0009
	RegKey2  uint16 = 0x000A
	RegKey3  uint16 = 0x000B
	RegWheel uint16 = 0x0044
)

var KeypanelMap = map[string]uint16{
	"Key 1": RegKey1,
	"Key 2": RegKey2,
	"Key 3": RegKey3,
	"Wheel": RegWheel,
}

// Wheel sentinel values written to RegWheel. Protocol quirk values as
// observed on the wire, see Client.TurnWheel.
const (
	WheelLeft  uint32 = 0x1FFFFF
	WheelRight uint32 = 0x000001
)

// Timer registers.
var TimerMap = map[string]uint16{
	"Add heat timer in sec.": 0x0000,
}

// PumpProfile holds the wattage table and auxiliary-heat labeling for
// one nominal pump size. Selected once at startup, never mutated.
type PumpProfile struct {
	SizeKW       int
	CompressorW  int
	AuxHeatLowW  int
	AuxHeatHighW int
	PumpP1W      int
	PumpP2W      int
	PumpP3W      int
	AuxLowLabel  string
	AuxHighLabel string
}

// ProfileFor returns the wattage profile for a nominal pump size in kW.
// Sizes without an override share the 5 kW base values; this
// default-sharing is deliberate, the vendor tables only list deltas.
func ProfileFor(sizeKW int) *PumpProfile {
	p := &PumpProfile{
		SizeKW:       sizeKW,
		CompressorW:  1500,
		AuxHeatLowW:  3000,
		AuxHeatHighW: 6000,
		PumpP1W:      55,
		PumpP2W:      46,
		PumpP3W:      106,
		AuxLowLabel:  "Add heat 3kw",
		AuxHighLabel: "Add heat 6kw",
	}
	switch sizeKW {
	case 4:
		p.CompressorW = 1100
		p.PumpP1W = 0
		p.PumpP2W = 35
		p.PumpP3W = 70
	case 7:
		p.CompressorW = 1850
	case 9:
		p.CompressorW = 2500
	case 11:
		p.CompressorW = 4600
	case 14:
		p.CompressorW = 4100
		p.AuxHeatLowW = 5250
		p.AuxHeatHighW = 10500
	case 16:
		p.CompressorW = 4600
		p.AuxHeatLowW = 5250
		p.AuxHeatHighW = 10500
		p.PumpP1W = 90
		p.PumpP2W = 165
	}
	if sizeKW == 14 || sizeKW == 16 {
		p.AuxLowLabel = "Add heat 5kw"
		p.AuxHighLabel = "Add heat 10kw"
	}
	return p
}
