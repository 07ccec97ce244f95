package depth

// RangeFilter masks samples outside the [near, far] distance band.
//
// Every sample strictly below near or strictly above far is replaced with
// Sentinel; in-range samples are copied unchanged. The input frame is never
// modified. Out-of-range samples are the normal case (the sensor reports 0
// for "no return"), so there is no error result.
//
// Filtering an already filtered frame with the same bounds yields an
// identical frame.
func RangeFilter(f *Frame, near, far uint16) *Frame {
	out := f.Clone()
	for i, s := range out.Samples {
		if s < near || s > far {
			out.Samples[i] = Sentinel
		}
	}
	return out
}
