package orientation

import (
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phanxgames/photosphere"
)

func TestPosePosition(t *testing.T) {
	tests := []struct {
		name    string
		pose    Pose
		wantLon float64
		wantLat float64
	}{
		{"level", Pose{}, 0, 0},
		{"yaw and pitch", Pose{Yaw: 90, Pitch: 30, Roll: 12}, math.Pi / 2, math.Pi / 6},
		{"negative yaw wraps", Pose{Yaw: -90}, 3 * math.Pi / 2, 0},
		{"pitch clamped", Pose{Pitch: 120}, 0, math.Pi / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.pose.Position()
			assert.InDelta(t, tt.wantLon, p.Longitude, 1e-12)
			assert.InDelta(t, tt.wantLat, p.Latitude, 1e-12)
		})
	}
}

func TestDeviceOrientationPosition(t *testing.T) {
	p := DeviceOrientation{Alpha: 180, Beta: 90}.Position()
	assert.InDelta(t, math.Pi, p.Longitude, 1e-12)
	assert.InDelta(t, 0, p.Latitude, 1e-12)

	p = DeviceOrientation{Alpha: 0, Beta: 45}.Position()
	assert.InDelta(t, -math.Pi/4, p.Latitude, 1e-12)

	p = DeviceOrientation{Beta: -30}.Position()
	assert.InDelta(t, -math.Pi/2, p.Latitude, 1e-12)
}

func TestStreamDropsOldest(t *testing.T) {
	s := newStream()
	for i := 0; i < sampleBuffer+5; i++ {
		s.publish(photosphere.Position{Longitude: float64(i)})
	}
	first := <-s.Samples()
	assert.Equal(t, 5.0, first.Longitude)
	assert.Len(t, s.Samples(), sampleBuffer-1)

	s.close()
	s.close()
	s.publish(photosphere.Position{})

	n := 0
	for range s.Samples() {
		n++
	}
	assert.Equal(t, sampleBuffer-1, n)
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestMQTTHandle(t *testing.T) {
	s := &MQTTSource{stream: newStream(), topic: DefaultPoseTopic}
	s.handle(nil, fakeMessage{topic: DefaultPoseTopic, payload: []byte(`{"roll":1,"pitch":-45,"yaw":180}`)})
	s.handle(nil, fakeMessage{topic: DefaultPoseTopic, payload: []byte(`not json`)})

	require.Len(t, s.Samples(), 1)
	p := <-s.Samples()
	assert.InDelta(t, math.Pi, p.Longitude, 1e-12)
	assert.InDelta(t, -math.Pi/4, p.Latitude, 1e-12)

	require.NoError(t, s.Close())
	_, ok := <-s.Samples()
	assert.False(t, ok)
}

func TestMQTTConfigDefaults(t *testing.T) {
	c := MQTTConfig{Broker: "tcp://localhost:1883"}.withDefaults()
	assert.Equal(t, DefaultPoseTopic, c.Topic)
	assert.Equal(t, "photosphere-viewer", c.ClientID)
	assert.Equal(t, 10*time.Second, c.Timeout)

	_, err := DialMQTT(MQTTConfig{})
	assert.Error(t, err)
}

func receive(t *testing.T, ch <-chan photosphere.Position) photosphere.Position {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("no sample received")
		return photosphere.Position{}
	}
}

func TestWebSocketSource(t *testing.T) {
	src := NewWebSocketSource()
	srv := httptest.NewServer(src)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(DeviceOrientation{Alpha: 90, Beta: 120, Gamma: 5}))
	p := receive(t, src.Samples())
	assert.InDelta(t, math.Pi/2, p.Longitude, 1e-12)
	assert.InDelta(t, math.Pi/6, p.Latitude, 1e-12)
	assert.Equal(t, 1, src.Connections())

	require.NoError(t, src.Close())
	_, ok := <-src.Samples()
	assert.False(t, ok)

	// The server side closed the connection.
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestMockSource(t *testing.T) {
	m := NewMockSource(time.Millisecond)
	p := receive(t, m.Samples())
	assert.GreaterOrEqual(t, p.Longitude, 0.0)
	assert.Less(t, p.Longitude, 2*math.Pi)
	assert.LessOrEqual(t, math.Abs(p.Latitude), 15*math.Pi/180+1e-12)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestMockPose(t *testing.T) {
	p := mockPose(0)
	assert.Equal(t, Pose{Roll: 0, Pitch: 15, Yaw: 0}, p)
	assert.InDelta(t, 300, mockPose(10).Yaw, 1e-9)
}
