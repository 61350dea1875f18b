package repository

import (
	"context"
)

// ScheduleRepository looks up the scheduled arrival time of a train at
// a station. The station name is passed without the "站" designator.
// An empty time with a nil error means the station or train was not
// found in the schedule. The implementation may be arbitrarily slow;
// callers must bound the call with their own timeout.
type ScheduleRepository interface {
	QueryArrivalTime(ctx context.Context, date, trainCode, station string) (string, error)
}
