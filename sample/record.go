package sample

// Record is a copy of the values sampled on one tick, handed to forwarders.
type Record struct {
	Tick        uint64         `json:"tick"`
	FastestRate uint16         `json:"rate"`
	Samples     []RecordSample `json:"samples"`
}

type RecordSample struct {
	ChannelID uint16  `json:"id"`
	Value     float64 `json:"value"`
	Int       bool    `json:"int,omitempty"`
}

// Snapshot copies the channels sampled on the last Populate.
func (b *Buffer) Snapshot(tick uint64, fastestRate uint16) *Record {
	r := &Record{
		Tick:        tick,
		FastestRate: fastestRate,
	}
	for _, s := range b.Samples {
		if !s.Value.Sampled() {
			continue
		}
		r.Samples = append(r.Samples, RecordSample{
			ChannelID: s.ChannelID,
			Value:     s.Value.Float64(),
			Int:       s.Value.Precision == PrecisionInt,
		})
	}
	return r
}
