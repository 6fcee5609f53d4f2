package forwarder

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/jd3nn1s/racelogger/sample"
	"github.com/pkg/errors"
)

type Header struct {
	Type uint8
}

const (
	TypeSamples = 1
)

// RecordHeader follows the packet Header and gives the number of samples
// that follow it.
type RecordHeader struct {
	Tick        uint64
	FastestRate uint16
	Count       uint16
}

const flagInt uint8 = 1

type wireSample struct {
	ChannelID uint16
	Flags     uint8
	Value     float64
}

var (
	headerSize     = binary.Size(Header{})
	recordHdrSize  = binary.Size(RecordHeader{})
	wireSampleSize = binary.Size(wireSample{})
)

// maxPacketSize is the encoded size of a record holding samples channels.
func maxPacketSize(samples int) int {
	return headerSize + recordHdrSize + samples*wireSampleSize
}

// MarshalRecord encodes a record as a little-endian samples packet.
func MarshalRecord(r *sample.Record) ([]byte, error) {
	if len(r.Samples) > int(^uint16(0)) {
		return nil, errors.Errorf("too many samples in record: %d", len(r.Samples))
	}
	buf := bytes.NewBuffer(make([]byte, 0, maxPacketSize(len(r.Samples))))
	hdr := Header{
		Type: TypeSamples,
	}
	if err := binary.Write(buf, binary.LittleEndian, &hdr); err != nil {
		return nil, errors.Wrap(err, "unable to write udp packet header")
	}
	rh := RecordHeader{
		Tick:        r.Tick,
		FastestRate: r.FastestRate,
		Count:       uint16(len(r.Samples)),
	}
	if err := binary.Write(buf, binary.LittleEndian, &rh); err != nil {
		return nil, errors.Wrap(err, "unable to write record header")
	}
	for _, s := range r.Samples {
		ws := wireSample{
			ChannelID: s.ChannelID,
			Value:     s.Value,
		}
		if s.Int {
			ws.Flags |= flagInt
		}
		if err := binary.Write(buf, binary.LittleEndian, &ws); err != nil {
			return nil, errors.Wrapf(err, "unable to write sample for channel %d", s.ChannelID)
		}
	}
	return buf.Bytes(), nil
}

// UnmarshalRecord decodes a packet written by MarshalRecord.
func UnmarshalRecord(data []byte) (*sample.Record, error) {
	rdr := bytes.NewReader(data)
	hdr := Header{}
	if err := binary.Read(rdr, binary.LittleEndian, &hdr); err != nil {
		return nil, errors.Wrap(err, "unable to read packet header")
	}
	if hdr.Type != TypeSamples {
		return nil, errors.Errorf("unexpected packet type %d", hdr.Type)
	}
	rh := RecordHeader{}
	if err := binary.Read(rdr, binary.LittleEndian, &rh); err != nil {
		return nil, errors.Wrap(err, "unable to read record header")
	}
	r := &sample.Record{
		Tick:        rh.Tick,
		FastestRate: rh.FastestRate,
	}
	for i := 0; i < int(rh.Count); i++ {
		ws := wireSample{}
		if err := binary.Read(rdr, binary.LittleEndian, &ws); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, errors.Errorf("packet truncated after %d of %d samples", i, rh.Count)
			}
			return nil, errors.Wrap(err, "unable to read sample")
		}
		r.Samples = append(r.Samples, sample.RecordSample{
			ChannelID: ws.ChannelID,
			Value:     ws.Value,
			Int:       ws.Flags&flagInt != 0,
		})
	}
	return r, nil
}
