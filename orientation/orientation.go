// Package orientation feeds device orientation readings into a viewer.
//
// A Source delivers camera positions on a channel; pass it to
// Viewer.AttachOrientation and toggle device orientation on:
//
//	src, err := orientation.DialMQTT(orientation.MQTTConfig{Broker: "tcp://localhost:1883"})
//	...
//	v.AttachOrientation(src.Samples())
//	v.ToggleDeviceOrientation()
package orientation

import (
	"math"
	"sync"

	"github.com/phanxgames/photosphere"
)

// sampleBuffer is the channel capacity of every source. When the render
// loop falls behind, the oldest readings are dropped.
const sampleBuffer = 16

// Source is anything that delivers orientation readings over time.
type Source interface {
	// Samples is closed when the source is closed.
	Samples() <-chan photosphere.Position
	Close() error
}

// Pose is an IMU orientation in degrees, as published on the inertial/pose
// topic.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Position maps yaw onto longitude and pitch onto latitude.
func (p Pose) Position() photosphere.Position {
	return photosphere.Position{
		Longitude: photosphere.NormalizeAngle(p.Yaw*math.Pi/180, false),
		Latitude:  photosphere.Clamp(p.Pitch, -90, 90) * math.Pi / 180,
	}
}

// DeviceOrientation is a browser DeviceOrientationEvent reading in degrees.
// Beta is 90 when the phone is held upright.
type DeviceOrientation struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// Position maps alpha onto longitude and beta - 90 onto latitude.
func (d DeviceOrientation) Position() photosphere.Position {
	return photosphere.Position{
		Longitude: photosphere.NormalizeAngle(d.Alpha*math.Pi/180, false),
		Latitude:  photosphere.Clamp(d.Beta-90, -90, 90) * math.Pi / 180,
	}
}

// stream is a lossy sample channel that is safe to publish to from any
// goroutine, including after it has been closed.
type stream struct {
	mu     sync.Mutex
	ch     chan photosphere.Position
	closed bool
}

func newStream() *stream {
	return &stream{ch: make(chan photosphere.Position, sampleBuffer)}
}

// Samples returns the reading channel.
func (s *stream) Samples() <-chan photosphere.Position { return s.ch }

// publish queues p, replacing the oldest reading when the buffer is full.
func (s *stream) publish(p photosphere.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- p:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

func (s *stream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
