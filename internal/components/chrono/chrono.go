package chrono

import "time"

// API is the clock components depend on so tests can control the current time.
type API interface {
	Now() time.Time
	Location() *time.Location
}

// StandardImpl is the wall clock expressed in Europe/Paris.
type StandardImpl struct{}

func (StandardImpl) Now() time.Time {
	return time.Now().In(paris)
}

func (StandardImpl) Location() *time.Location {
	return paris
}
