package orientation

import (
	"math"
	"time"
)

// MockSource generates a smoothly wandering pose, for demos without a
// sensor.
type MockSource struct {
	*stream
	stop chan struct{}
	done chan struct{}
}

// NewMockSource publishes a reading every interval until closed.
func NewMockSource(interval time.Duration) *MockSource {
	m := &MockSource{
		stream: newStream(),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go m.run(interval)
	return m
}

func (m *MockSource) run(interval time.Duration) {
	defer close(m.done)
	start := time.Now()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-t.C:
			m.publish(mockPose(now.Sub(start).Seconds()).Position())
		}
	}
}

// mockPose is the pose after elapsed seconds.
func mockPose(elapsed float64) Pose {
	return Pose{
		Roll:  20 * math.Sin(elapsed),
		Pitch: 15 * math.Cos(elapsed*0.7),
		Yaw:   math.Mod(elapsed*30, 360),
	}
}

// Close stops the generator and closes the sample channel.
func (m *MockSource) Close() error {
	select {
	case <-m.stop:
	default:
		close(m.stop)
	}
	<-m.done
	m.stream.close()
	return nil
}
