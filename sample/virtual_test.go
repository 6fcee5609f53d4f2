package sample

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVirtualRegistry(t *testing.T) {
	r := NewVirtualRegistry()
	assert.Equal(t, 0, r.Count())

	idx := r.Add(channel(7, 10, 1))
	assert.Equal(t, 0, idx)
	assert.Equal(t, 1, r.Add(channel(8, 10, 0)))
	assert.Equal(t, 2, r.Count())

	cfg, v := r.Get(0)
	assert.Equal(t, uint16(7), cfg.ID)
	assert.Equal(t, 0.0, v)

	r.Set(0, 12.25)
	_, v = r.Get(0)
	assert.Equal(t, 12.25, v)

	// unknown indexes
	r.Set(5, 1)
	cfg, v = r.Get(5)
	assert.Equal(t, uint16(0), cfg.ID)
	assert.Equal(t, float64(ErrorValue), v)

	r.Reset()
	assert.Equal(t, 0, r.Count())
}

func TestVirtualRegistryConcurrentSet(t *testing.T) {
	r := NewVirtualRegistry()
	r.Add(channel(1, 1, 0))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			r.Set(0, v)
			r.Get(0)
		}(float64(i))
	}
	wg.Wait()

	_, v := r.Get(0)
	assert.GreaterOrEqual(t, v, 0.0)
	assert.Less(t, v, 8.0)
}

func TestVirtualChannelsInBuffer(t *testing.T) {
	r := NewVirtualRegistry()
	r.Add(channel(60, 1, 2))
	r.Set(0, 3.5)

	b := Build(emptyConfig(), newDriverStub().drivers(r))
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, uint16(1), b.Populate(1))
	assert.Equal(t, 3.5, b.Samples[0].Value.Float64())
}
