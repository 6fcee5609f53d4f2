package racelogger

import (
	"math"
	"sync"
	"time"

	"github.com/jd3nn1s/racelogger/config"
	"github.com/jd3nn1s/racelogger/sample"
)

const (
	// raw sensor counts per unit of the IMU axes
	imuAccelCountsPerG   = 1024.0
	imuGyroCountsPerDegS = 14.375

	earthRadiusMiles = 3958.8
)

// GPSFix is a single position solution from a GPS receiver.
type GPSFix struct {
	Time       time.Time
	Latitude   float64
	Longitude  float64
	SpeedKph   float64
	Satellites int
}

// LapPredictor estimates the current lap time in seconds.
type LapPredictor func(at sample.GeoPoint, secondsSinceFirstFix float64) float64

// Readings caches the most recent value of every driver so the tick can read
// them without blocking. Driver runners write through the setters from their
// own goroutines.
type Readings struct {
	mu sync.RWMutex

	analog      [config.ADCChannels]uint32
	timerPeriod [config.TimerChannels]uint32
	pwmPeriod   [config.PWMChannels]float64
	pwmDuty     [config.PWMChannels]float64
	gpio        [config.GPIOChannels]bool

	imuRaw      [config.IMUChannels]int
	imuFiltered [config.IMUChannels]float64
	imuPrimed   [config.IMUChannels]bool

	obd2PIDs []config.PIDConfig
	pids     map[uint16]float64

	fix       GPSFix
	firstFix  time.Time
	hasFix    bool
	distance  float64
	predictor LapPredictor

	lapCount       int
	lastLapTime    float64
	lastSector     int
	lastSectorTime float64
}

func NewReadings() *Readings {
	return &Readings{
		pids: map[uint16]float64{},
	}
}

func inRange(index, n int) bool {
	return index >= 0 && index < n
}

func (r *Readings) SetAnalog(index int, raw uint32) {
	if !inRange(index, config.ADCChannels) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analog[index] = raw
}

func (r *Readings) Analog(index int) uint32 {
	if !inRange(index, config.ADCChannels) {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.analog[index]
}

func (r *Readings) SetTimerPeriod(index int, period uint32) {
	if !inRange(index, config.TimerChannels) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timerPeriod[index] = period
}

func (r *Readings) TimerPeriod(index int) uint32 {
	if !inRange(index, config.TimerChannels) {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.timerPeriod[index]
}

// SetPWM stores the period and duty cycle percentage of a PWM output.
func (r *Readings) SetPWM(index int, period, duty float64) {
	if !inRange(index, config.PWMChannels) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pwmPeriod[index] = period
	r.pwmDuty[index] = duty
}

func (r *Readings) PWMPeriod(index int) float64 {
	if !inRange(index, config.PWMChannels) {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pwmPeriod[index]
}

func (r *Readings) PWMDuty(index int) float64 {
	if !inRange(index, config.PWMChannels) {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pwmDuty[index]
}

func (r *Readings) SetGPIO(index int, v bool) {
	if !inRange(index, config.GPIOChannels) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gpio[index] = v
}

func (r *Readings) GPIO(index int) bool {
	if !inRange(index, config.GPIOChannels) {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gpio[index]
}

// SetIMURaw stores the raw counts of a physical IMU axis.
func (r *Readings) SetIMURaw(physical int, counts int) {
	if !inRange(physical, config.IMUChannels) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imuRaw[physical] = counts
}

// IMU converts the raw counts of the channel's physical axis to G or deg/s
// relative to its zero value and low-pass filters the result. Alpha is the
// weight of the new reading; zero disables filtering.
func (r *Readings) IMU(index int, cfg config.IMUConfig) float64 {
	if !inRange(index, config.IMUChannels) || !inRange(cfg.PhysicalChannel, config.IMUChannels) {
		return sample.ErrorValue
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := float64(r.imuRaw[cfg.PhysicalChannel] - cfg.ZeroValue)
	var v float64
	switch cfg.Mode {
	case config.IMUGyro:
		v = counts / imuGyroCountsPerDegS
	default:
		v = counts / imuAccelCountsPerG
	}

	alpha := cfg.Alpha
	if alpha <= 0 || alpha > 1 || !r.imuPrimed[index] {
		alpha = 1
	}
	v = alpha*v + (1-alpha)*r.imuFiltered[index]
	r.imuFiltered[index] = v
	r.imuPrimed[index] = true
	return v
}

// SetOBD2Config selects the PIDs that PIDValue indexes.
func (r *Readings) SetOBD2Config(cfg config.OBD2Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obd2PIDs = append([]config.PIDConfig(nil), cfg.PIDs...)
}

// SetPID stores the latest value of an OBD-II PID.
func (r *Readings) SetPID(pid uint16, v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pids[pid] = v
}

// PIDValue returns the value of the index'th configured PID, or zero when
// nothing has reported it yet.
func (r *Readings) PIDValue(index int) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !inRange(index, len(r.obd2PIDs)) {
		return sample.ErrorValue
	}
	return r.pids[r.obd2PIDs[index].PID]
}

// SetFix stores a position solution and accumulates the distance from the
// previous one.
func (r *Readings) SetFix(fix GPSFix) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hasFix {
		r.distance += haversineMiles(r.fix.Latitude, r.fix.Longitude, fix.Latitude, fix.Longitude)
	} else {
		r.firstFix = fix.Time
		r.hasFix = true
	}
	r.fix = fix
}

// SetSatellites updates the satellite count without a new position.
func (r *Readings) SetSatellites(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fix.Satellites = n
}

// ResetDistance zeroes the distance travelled, for example at session start.
func (r *Readings) ResetDistance() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.distance = 0
}

func (r *Readings) Latitude() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fix.Latitude
}

func (r *Readings) Longitude() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fix.Longitude
}

func (r *Readings) Speed() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fix.SpeedKph
}

func (r *Readings) LastFix() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fix.Time
}

func (r *Readings) Satellites() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fix.Satellites
}

func (r *Readings) Distance() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.distance
}

func (r *Readings) SecondsSinceFirstFix() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.hasFix {
		return 0
	}
	return r.fix.Time.Sub(r.firstFix).Seconds()
}

// SetLap records a completed lap, with its time in minutes.
func (r *Readings) SetLap(count int, lapTime float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lapCount = count
	r.lastLapTime = lapTime
}

// SetSector records a completed sector, with its time in minutes.
func (r *Readings) SetSector(sector int, sectorTime float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSector = sector
	r.lastSectorTime = sectorTime
}

// SetPredictor replaces the lap time predictor. A nil predictor restores the
// default of repeating the last lap time.
func (r *Readings) SetPredictor(p LapPredictor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.predictor = p
}

func (r *Readings) LapCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lapCount
}

func (r *Readings) LastLapTime() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastLapTime
}

func (r *Readings) LastSector() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastSector
}

func (r *Readings) LastSectorTime() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastSectorTime
}

func (r *Readings) PredictedTime(at sample.GeoPoint, secondsSinceFirstFix float64) float64 {
	r.mu.RLock()
	p := r.predictor
	last := r.lastLapTime
	r.mu.RUnlock()

	if p == nil {
		return last * 60
	}
	return p(at, secondsSinceFirstFix)
}

func haversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := math.Pi / 180
	dLat := (lat2 - lat1) * toRad
	dLon := (lon2 - lon1) * toRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*toRad)*math.Cos(lat2*toRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(a))
}
