package sample

import (
	"time"

	"github.com/jd3nn1s/racelogger/config"
)

// Driver readers must return the most recently available reading without
// blocking; Populate runs inside the tick budget.

type AnalogReader interface {
	Analog(index int) uint32
}

type TimerReader interface {
	TimerPeriod(index int) uint32
}

type PWMReader interface {
	PWMPeriod(index int) float64
	PWMDuty(index int) float64
}

type GPIOReader interface {
	GPIO(index int) bool
}

type IMUReader interface {
	IMU(index int, cfg config.IMUConfig) float64
}

type OBD2Reader interface {
	PIDValue(index int) float64
}

// GeoPoint is a position in decimal degrees.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

type Position interface {
	Latitude() float64
	Longitude() float64
	// Speed is in km/h.
	Speed() float64
	LastFix() time.Time
	Satellites() int
	// Distance is the cumulative distance travelled in miles.
	Distance() float64
	SecondsSinceFirstFix() float64
}

type LapTimer interface {
	LapCount() int
	LastLapTime() float64
	LastSector() int
	LastSectorTime() float64
	// PredictedTime returns a predicted lap time in seconds.
	PredictedTime(at GeoPoint, secondsSinceFirstFix float64) float64
}

type VirtualChannels interface {
	Count() int
	Get(index int) (config.ChannelConfig, float64)
}

// Drivers bundles every reading source consulted by the source adapters.
type Drivers struct {
	Analog   AnalogReader
	Timer    TimerReader
	PWM      PWMReader
	GPIO     GPIOReader
	IMU      IMUReader
	OBD2     OBD2Reader
	Position Position
	Laps     LapTimer
	Virtual  VirtualChannels
}
