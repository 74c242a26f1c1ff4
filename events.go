package photosphere

// ZoomEvent is delivered with EventZoomUpdated.
type ZoomEvent struct {
	Level int
	// Fov is the resulting vertical field of view in degrees.
	Fov float64
}

// RegionEvent is delivered with EventRegionAdded and EventRegionRemoved.
type RegionEvent struct {
	Index  int
	Region RegionPair
}

// --- Handler registry ---

type handler[T any] struct {
	id uint32
	fn func(T)
}

type handlerRegistry struct {
	position          []handler[Position]
	zoom              []handler[ZoomEvent]
	autorotate        []handler[bool]
	deviceOrientation []handler[bool]
	stereo            []handler[bool]
	fullscreen        []handler[bool]
	labelRequest      []handler[PendingPair]
	regionAdded       []handler[RegionEvent]
	regionRemoved     []handler[RegionEvent]
	ready             []handler[struct{}]
	nextID            uint32
}

// CallbackHandle allows removing a registered callback.
type CallbackHandle struct {
	id    uint32
	reg   *handlerRegistry
	event EventType
}

// Remove unregisters this callback so it no longer fires.
func (h CallbackHandle) Remove() {
	if h.reg == nil {
		return
	}
	switch h.event {
	case EventPositionUpdated:
		h.reg.position = removeHandler(h.reg.position, h.id)
	case EventZoomUpdated:
		h.reg.zoom = removeHandler(h.reg.zoom, h.id)
	case EventAutorotate:
		h.reg.autorotate = removeHandler(h.reg.autorotate, h.id)
	case EventDeviceOrientation:
		h.reg.deviceOrientation = removeHandler(h.reg.deviceOrientation, h.id)
	case EventStereo:
		h.reg.stereo = removeHandler(h.reg.stereo, h.id)
	case EventFullscreen:
		h.reg.fullscreen = removeHandler(h.reg.fullscreen, h.id)
	case EventLabelRequest:
		h.reg.labelRequest = removeHandler(h.reg.labelRequest, h.id)
	case EventRegionAdded:
		h.reg.regionAdded = removeHandler(h.reg.regionAdded, h.id)
	case EventRegionRemoved:
		h.reg.regionRemoved = removeHandler(h.reg.regionRemoved, h.id)
	case EventReady:
		h.reg.ready = removeHandler(h.reg.ready, h.id)
	}
}

func removeHandler[T any](s []handler[T], id uint32) []handler[T] {
	for i := range s {
		if s[i].id == id {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = handler[T]{}
			return s[:len(s)-1]
		}
	}
	return s
}

func addHandler[T any](reg *handlerRegistry, list *[]handler[T], event EventType, fn func(T)) CallbackHandle {
	reg.nextID++
	id := reg.nextID
	*list = append(*list, handler[T]{id: id, fn: fn})
	return CallbackHandle{id: id, reg: reg, event: event}
}

// fire calls every handler in registration order. The slice is copied so a
// handler may remove itself.
func fire[T any](list []handler[T], v T) {
	if len(list) == 0 {
		return
	}
	hs := make([]handler[T], len(list))
	copy(hs, list)
	for _, h := range hs {
		h.fn(v)
	}
}

// --- Registration ---

// OnPositionUpdated registers a callback for camera orientation changes.
func (r *handlerRegistry) OnPositionUpdated(fn func(Position)) CallbackHandle {
	return addHandler(r, &r.position, EventPositionUpdated, fn)
}

// OnZoomUpdated registers a callback for zoom level changes.
func (r *handlerRegistry) OnZoomUpdated(fn func(ZoomEvent)) CallbackHandle {
	return addHandler(r, &r.zoom, EventZoomUpdated, fn)
}

// OnAutorotate registers a callback fired when autorotate starts or stops.
func (r *handlerRegistry) OnAutorotate(fn func(bool)) CallbackHandle {
	return addHandler(r, &r.autorotate, EventAutorotate, fn)
}

// OnDeviceOrientation registers a callback fired when device orientation
// control starts or stops.
func (r *handlerRegistry) OnDeviceOrientation(fn func(bool)) CallbackHandle {
	return addHandler(r, &r.deviceOrientation, EventDeviceOrientation, fn)
}

// OnStereo registers a callback fired when the stereo effect starts or stops.
func (r *handlerRegistry) OnStereo(fn func(bool)) CallbackHandle {
	return addHandler(r, &r.stereo, EventStereo, fn)
}

// OnFullscreen registers a callback fired when fullscreen is entered or left.
func (r *handlerRegistry) OnFullscreen(fn func(bool)) CallbackHandle {
	return addHandler(r, &r.fullscreen, EventFullscreen, fn)
}

// OnLabelRequest registers a callback fired when a box has been drawn and
// needs a label. Answer with Finalize or Cancel on the session.
func (r *handlerRegistry) OnLabelRequest(fn func(PendingPair)) CallbackHandle {
	return addHandler(r, &r.labelRequest, EventLabelRequest, fn)
}

// OnRegionAdded registers a callback fired after a labeled region is stored.
func (r *handlerRegistry) OnRegionAdded(fn func(RegionEvent)) CallbackHandle {
	return addHandler(r, &r.regionAdded, EventRegionAdded, fn)
}

// OnRegionRemoved registers a callback fired after a region is deleted.
func (r *handlerRegistry) OnRegionRemoved(fn func(RegionEvent)) CallbackHandle {
	return addHandler(r, &r.regionRemoved, EventRegionRemoved, fn)
}

// OnReady registers a callback fired once the first panorama is displayed.
func (r *handlerRegistry) OnReady(fn func()) CallbackHandle {
	return addHandler(r, &r.ready, EventReady, func(struct{}) { fn() })
}
