package gps

// Fix is a single decoded RMC sentence.
// Time is always set; Latitude/Longitude are only meaningful when Valid.
type Fix struct {
	Time      int64   // epoch seconds
	Valid     bool    // validity flag "A"
	Latitude  float64 // ddmm.mmmm / 100, south negative
	Longitude float64 // dddmm.mmmm / 100, west negative
	Validity  string  // raw flag: "A" (valid) / "V" (void), etc.
}
