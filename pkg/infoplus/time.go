package infoplus

import (
	"sync"
	"time"
)

var localLocation *time.Location
var localLocationOnce sync.Once

func location() *time.Location {
	localLocationOnce.Do(func() {
		var err error
		localLocation, err = time.LoadLocation("Europe/Amsterdam")
		if err != nil {
			localLocation = time.UTC
		}
	})

	return localLocation
}

// LocalTimeOfDay converts the feed's UTC ISO timestamps into the local
// HH:MM:SS form stored on journey events.
func LocalTimeOfDay(isoTimestamp string) (string, error) {
	parsed, err := time.Parse(time.RFC3339, isoTimestamp)
	if err != nil {
		return "", err
	}

	return parsed.In(location()).Format("15:04:05"), nil
}

// ParseTimestamp parses the feed's ISO timestamps, for message ordering.
func ParseTimestamp(isoTimestamp string) (time.Time, error) {
	return time.Parse(time.RFC3339, isoTimestamp)
}
