package sample

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/jd3nn1s/racelogger/config"
)

// VirtualRegistry holds channels whose values are computed outside the
// hardware drivers, such as signals mapped out of CAN traffic. Values may be
// set from any goroutine while the tick reads them.
type VirtualRegistry struct {
	mu       sync.RWMutex
	channels []*virtualChannel
}

type virtualChannel struct {
	cfg   config.ChannelConfig
	value atomic.Uint64
}

func NewVirtualRegistry() *VirtualRegistry {
	return &VirtualRegistry{}
}

// Add registers a channel and returns its index.
func (r *VirtualRegistry) Add(cfg config.ChannelConfig) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = append(r.channels, &virtualChannel{cfg: cfg})
	return len(r.channels) - 1
}

// Reset removes every channel.
func (r *VirtualRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = nil
}

func (r *VirtualRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// Get returns the channel configuration and current value. An unknown index
// yields an empty configuration and ErrorValue.
func (r *VirtualRegistry) Get(index int) (config.ChannelConfig, float64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.channels) {
		return config.ChannelConfig{}, ErrorValue
	}
	c := r.channels[index]
	return c.cfg, math.Float64frombits(c.value.Load())
}

// Set stores the current value of a channel. Unknown indexes are ignored.
func (r *VirtualRegistry) Set(index int, v float64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.channels) {
		return
	}
	r.channels[index].value.Store(math.Float64bits(v))
}
