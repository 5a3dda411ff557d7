package util

import (
	"os"
	"time"
)

// WorkTZ is the company timezone used to anchor attendance dates.
var WorkTZ = func() *time.Location {
	name := os.Getenv("WORK_TZ")
	if name == "" {
		name = "Asia/Kolkata"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}()

// WorkDate anchors t to 00:00 local in the company timezone. The DATE part of
// this value is the upsert key for attendance records.
func WorkDate(t time.Time) time.Time {
	local := t.In(WorkTZ)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, WorkTZ)
}
