package bridge

// Setting describes one writable controller setting: its register table
// name, the MQTT topic key and the bounds advertised to Home Assistant.
// Values travel as integers in tenths of a unit in both directions.
type Setting struct {
	Name string
	Key  string
	Min  float64
	Max  float64
	Step float64
}

// Settings lists every exposed setting in sweep order.
var Settings = []Setting{
	{"Indoor temp setting", "indoor_temp_setting", 10, 30, 0.1},
	{"Heat curve", "heat_curve", 0, 10, 0.1},
	{"Heat curve fine adj.", "heat_curve_fine_adj", -10, 10, 0.1},
	{"Curve infl. by in-temp.", "curve_infl_by_in_temp", -10, 10, 0.1},
	{"Heat curve coupling diff.", "heat_curve_coupling_diff", 0, 15, 1},
	{"Adjust curve at +20° out", "adjust_curve_at_20_out", -10, 10, 0.1},
	{"Adjust curve at +15° out", "adjust_curve_at_15_out", -10, 10, 0.1},
	{"Adjust curve at +10° out", "adjust_curve_at_10_out", -10, 10, 0.1},
	{"Adjust curve at +5° out", "adjust_curve_at_5_out", -10, 10, 0.1},
	{"Adjust curve at 0° out", "adjust_curve_at_0_out", -10, 10, 0.1},
	{"Adjust curve at -5° out", "adjust_curve_at_-5_out", -10, 10, 0.1},
	{"Adjust curve at -10° out", "adjust_curve_at_-10_out", -10, 10, 0.1},
	{"Adjust curve at -15° out", "adjust_curve_at_-15_out", -10, 10, 0.1},
	{"Adjust curve at -20° out", "adjust_curve_at_-20_out", -10, 10, 0.1},
	{"Adjust curve at -25° out", "adjust_curve_at_-25_out", -10, 10, 0.1},
	{"Adjust curve at -30° out", "adjust_curve_at_-30_out", -10, 10, 0.1},
	{"Adjust curve at -35° out", "adjust_curve_at_-35_out", -10, 10, 0.1},
}
