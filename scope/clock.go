package scope

import "time"

// nowFunc reads wall-clock seconds since the epoch. §4.1 requires no
// monotonic guarantee — expiry tolerates a coarse or even corrected
// clock — so plain time.Now(), as fractional seconds, is enough; it's a
// var so tests can freeze or advance it deterministically.
var nowFunc = func() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
