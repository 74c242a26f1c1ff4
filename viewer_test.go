package photosphere

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func loadedViewer(t *testing.T, cfg Config) *Viewer {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pano.jpg")
	if err := os.WriteFile(path, encodePNG(t, 200, 100), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.Panorama = path
	v, err := NewViewer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(v.Close)
	v.Resize(800, 600)
	v.Load(context.Background(), "")
	waitReady(t, v)
	return v
}

func waitReady(t *testing.T, v *Viewer) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !v.Ready() {
		if time.Now().After(deadline) {
			t.Fatal("viewer not ready")
		}
		if err := v.Update(0); err != nil {
			t.Fatal(err)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNewViewerInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Segments = 1
	if _, err := NewViewer(cfg); err == nil {
		t.Error("expected error for invalid config")
	}
}

func TestViewerReady(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ZoomLevel = 30
	cfg.DefaultPosition = DefaultPosition{Long: Angle(1), Lat: Angle(0.5)}

	path := filepath.Join(t.TempDir(), "pano.jpg")
	os.WriteFile(path, encodePNG(t, 200, 100), 0o644)
	cfg.Panorama = path
	v, err := NewViewer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Close()

	readies := 0
	v.OnReady(func() { readies++ })
	var autorotate []bool
	v.OnAutorotate(func(on bool) { autorotate = append(autorotate, on) })

	if p := v.Position(); p.Longitude != 1 || p.Latitude != 0.5 {
		t.Errorf("initial position = %+v", p)
	}
	v.Load(context.Background(), "")
	waitReady(t, v)

	if readies != 1 {
		t.Errorf("ready fired %d times, want 1", readies)
	}
	if v.ZoomLevel() != 30 {
		t.Errorf("zoom = %d, want 30", v.ZoomLevel())
	}
	if w, h := v.Texture().Size(); w != 200 || h != 100 {
		t.Errorf("texture = %dx%d", w, h)
	}

	// The idle timer was armed by the first load.
	v.Update(2 * time.Second)
	if len(autorotate) != 1 || !autorotate[0] {
		t.Errorf("autorotate events = %v, want [true]", autorotate)
	}

	// A second load swaps the texture without firing ready again.
	gen := v.TextureGeneration()
	v.Load(context.Background(), "data:image/png;base64,"+base64.StdEncoding.EncodeToString(encodePNG(t, 40, 20)))
	deadline := time.Now().Add(5 * time.Second)
	for v.TextureGeneration() == gen {
		if time.Now().After(deadline) {
			t.Fatal("second load did not finish")
		}
		v.Update(0)
		time.Sleep(time.Millisecond)
	}
	if readies != 1 {
		t.Errorf("ready fired %d times after reload", readies)
	}
	if v.Texture().Source != "inline" {
		t.Errorf("Source = %q", v.Texture().Source)
	}
}

func TestViewerLoadError(t *testing.T) {
	v, err := NewViewer(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	v.Load(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	deadline := time.Now().Add(5 * time.Second)
	for {
		if err := v.Update(0); err != nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no load error reported")
		}
		time.Sleep(time.Millisecond)
	}
	if v.Ready() || v.Texture() != nil {
		t.Error("failed load should not make the viewer ready")
	}
}

func TestViewerMoveAndRotate(t *testing.T) {
	v, err := NewViewer(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := v.MoveTo("90deg", "-45deg"); err != nil {
		t.Fatal(err)
	}
	p := v.PositionDegrees()
	if !approxEqual(p.Longitude, 90, 1e-9) || !approxEqual(p.Latitude, -45, 1e-9) {
		t.Errorf("position = %+v°", p)
	}

	if err := v.Rotate("-10deg", 0.1); err != nil {
		t.Fatal(err)
	}
	p = v.Position()
	if !approxEqual(p.Longitude, 80*math.Pi/180, 1e-9) || !approxEqual(p.Latitude, -math.Pi/4+0.1, 1e-9) {
		t.Errorf("position after rotate = %+v", p)
	}

	if err := v.MoveTo("north", 0); !errors.Is(err, ErrInvalidAngle) {
		t.Errorf("error = %v, want ErrInvalidAngle", err)
	}
	if err := v.Rotate(0, "1grad"); !errors.Is(err, ErrInvalidAngle) {
		t.Errorf("error = %v, want ErrInvalidAngle", err)
	}
}

func TestViewerZoom(t *testing.T) {
	v, _ := NewViewer(DefaultConfig())
	v.Zoom(42.4)
	v.ZoomIn()
	v.ZoomOut()
	v.ZoomOut()
	if v.ZoomLevel() != 41 {
		t.Errorf("zoom = %d, want 41", v.ZoomLevel())
	}
}

func TestViewerOrientationStream(t *testing.T) {
	v, _ := NewViewer(DefaultConfig())
	ch := make(chan Position, 4)
	v.AttachOrientation(ch)

	ch <- Position{Longitude: 2, Latitude: 0}
	v.Update(0)
	if v.Position().Longitude != 0 {
		t.Error("sample applied while device orientation is off")
	}

	v.ToggleDeviceOrientation()
	ch <- Position{Longitude: 1, Latitude: 0.1}
	ch <- Position{Longitude: 1.5, Latitude: 0.2}
	v.Update(0)
	if p := v.Position(); p.Longitude != 1.5 || p.Latitude != 0.2 {
		t.Errorf("position = %+v, want the last sample", p)
	}
	close(ch)
	v.Update(0)
}

func TestViewerLabelAndExport(t *testing.T) {
	v := loadedViewer(t, DefaultConfig())
	var buf bytes.Buffer
	v.SetLogger(log.New(&buf, "", 0))
	v.SetDebugMode(true)

	var requests int
	v.OnLabelRequest(func(PendingPair) { requests++ })

	c := v.Controller()
	c.KeyDown(KeyLabel)
	c.PointerDown(300, 200)
	c.PointerUp(500, 400)
	if requests != 1 {
		t.Fatalf("label requests = %d, want 1", requests)
	}
	idx, stored, err := v.Label("door")
	if err != nil || !stored || idx != 0 {
		t.Fatalf("Label = (%d, %v, %v)", idx, stored, err)
	}
	if !strings.Contains(buf.String(), `region 0 "door"`) {
		t.Errorf("log = %q", buf.String())
	}

	dir := t.TempDir()
	pixelPath, sphericalPath, err := v.Export(dir)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(pixelPath) != "pano.xml" || filepath.Base(sphericalPath) != "l-pano.xml" {
		t.Errorf("paths = %s, %s", pixelPath, sphericalPath)
	}
	data, _ := os.ReadFile(pixelPath)
	if !strings.Contains(string(data), "<width>200</width>") || !strings.Contains(string(data), "<name>door</name>") {
		t.Errorf("pixel file = %s", data)
	}

	c.KeyDown(KeyLabel)
	c.PointerDown(300, 200)
	c.PointerUp(500, 400)
	v.CancelLabel()
	if v.Session().Len() != 1 {
		t.Errorf("Len = %d after cancel, want 1", v.Session().Len())
	}
}

func TestViewerExportWithoutPanorama(t *testing.T) {
	v, _ := NewViewer(DefaultConfig())
	if _, _, err := v.Export(t.TempDir()); err == nil {
		t.Error("expected error without a panorama")
	}
}

func TestViewerBadSpeedDisablesAutorotate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AnimSpeed = "fast"
	v, err := NewViewer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	v.ToggleAutorotate()
	if v.Controller().Autorotating() {
		t.Error("autorotate should be unavailable with a bad speed")
	}
}
