package clock

import "time"

// NowFunc supplies the wall clock; tests swap it for a fixed instant so
// decision timestamps compare deterministically.
var NowFunc = time.Now

// Now reads the current time through NowFunc.
func Now() time.Time { return NowFunc() }
