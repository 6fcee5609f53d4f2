package forwarder

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/jd3nn1s/racelogger/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord() *sample.Record {
	return &sample.Record{
		Tick:        400,
		FastestRate: 1,
		Samples: []sample.RecordSample{
			{ChannelID: 1, Value: 2.5},
			{ChannelID: 200, Value: 3200, Int: true},
			{ChannelID: 1000, Value: 47.6062095},
		},
	}
}

func TestUDPForwarder(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()
	udpAddr := pc.LocalAddr().(*net.UDPAddr)
	cfg := fmt.Sprintf(`
server = "127.0.0.1"
port = %d
`, udpAddr.Port)

	recvData := struct {
		data []byte
		len  int
	}{}

	dataChan := make(chan struct{}, 1)
	go func() {
		buffer := make([]byte, 1024)
		assert.NoError(t, pc.SetReadDeadline(time.Now().Add(time.Second*3)))
		n, _, err := pc.ReadFrom(buffer)
		assert.NoError(t, err)
		recvData.data = buffer
		recvData.len = n
		dataChan <- struct{}{}
	}()

	udp, err := NewUDPForwarderFromReader(bytes.NewBufferString(cfg))
	require.NoError(t, err)
	defer udp.Close()
	assert.Equal(t, udpAddr.Port, udp.Config.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = udp.Start(ctx)
	}()

	r := testRecord()
	assert.NoError(t, udp.Forward(r))

	<-dataChan
	// header, record header and three samples
	assert.Equal(t, 1+12+3*11, recvData.len)

	recv, err := UnmarshalRecord(recvData.data[:recvData.len])
	require.NoError(t, err)
	assert.Equal(t, r, recv)
}

func TestUDPForwarderBadConfig(t *testing.T) {
	_, err := NewUDPForwarderFromReader(bytes.NewBufferString("port = \"x\""))
	assert.Error(t, err)
}

func TestUDPForwardQueueFull(t *testing.T) {
	udp := &UDPForwarder{
		fwdChan: make(chan *sample.Record, 1),
	}
	assert.NoError(t, udp.Forward(testRecord()))
	// no reader, the second record is dropped rather than blocking
	assert.NoError(t, udp.Forward(testRecord()))
	assert.Equal(t, uint64(1), udp.dropped.Load())
}

func TestUnmarshalRecordErrors(t *testing.T) {
	_, err := UnmarshalRecord(nil)
	assert.Error(t, err)

	_, err = UnmarshalRecord([]byte{9})
	assert.Error(t, err, "unknown packet type")

	pkt, err := MarshalRecord(testRecord())
	require.NoError(t, err)
	_, err = UnmarshalRecord(pkt[:len(pkt)-4])
	assert.Error(t, err, "truncated")
}

func TestMarshalEmptyRecord(t *testing.T) {
	pkt, err := MarshalRecord(&sample.Record{Tick: 7})
	require.NoError(t, err)
	assert.Len(t, pkt, 13)

	r, err := UnmarshalRecord(pkt)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), r.Tick)
	assert.Empty(t, r.Samples)
}
