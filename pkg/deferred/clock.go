package deferred

import "github.com/benbjohnson/clock"

// Clock is the time source used to compute and compare deadlines.
// clock.New() reads time.Now, which carries a monotonic reading, so deadline
// comparisons are unaffected by wall clock changes.
type Clock = clock.Clock
