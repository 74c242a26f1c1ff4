package ecs

import (
	"github.com/phanxgames/photosphere"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"
)

// Event types published by a Bridge. Events are queued; call
// ProcessEvents or events.ProcessAllEvents to deliver them.
var (
	PositionEventType      = events.NewEventType[photosphere.Position]()
	ZoomEventType          = events.NewEventType[photosphere.ZoomEvent]()
	RegionAddedEventType   = events.NewEventType[photosphere.RegionEvent]()
	RegionRemovedEventType = events.NewEventType[photosphere.RegionEvent]()
)

// RegionComponent holds one labeled region pair.
var RegionComponent = donburi.NewComponentType[photosphere.RegionPair]()

// RegionQuery matches every region entity.
var RegionQuery = donburi.NewQuery(filter.Contains(RegionComponent))

// Bridge forwards the notifications of one viewer into a world.
type Bridge struct {
	world    donburi.World
	regions  []donburi.Entity // aligned with session indices
	handles  []photosphere.CallbackHandle
	attached bool
}

// Attach creates an entity for every region already in the viewer session
// and subscribes to the viewer notifications.
func Attach(world donburi.World, v *photosphere.Viewer) *Bridge {
	b := &Bridge{world: world, attached: true}
	for _, pair := range v.Session().Regions() {
		b.regions = append(b.regions, b.createRegion(pair))
	}
	b.handles = []photosphere.CallbackHandle{
		v.OnPositionUpdated(func(p photosphere.Position) {
			PositionEventType.Publish(world, p)
		}),
		v.OnZoomUpdated(func(e photosphere.ZoomEvent) {
			ZoomEventType.Publish(world, e)
		}),
		v.OnRegionAdded(b.regionAdded),
		v.OnRegionRemoved(b.regionRemoved),
	}
	return b
}

func (b *Bridge) createRegion(pair photosphere.RegionPair) donburi.Entity {
	e := b.world.Create(RegionComponent)
	RegionComponent.SetValue(b.world.Entry(e), pair)
	return e
}

func (b *Bridge) regionAdded(ev photosphere.RegionEvent) {
	e := b.createRegion(ev.Region)
	if ev.Index >= len(b.regions) {
		b.regions = append(b.regions, e)
	} else {
		b.regions = append(b.regions[:ev.Index], append([]donburi.Entity{e}, b.regions[ev.Index:]...)...)
	}
	RegionAddedEventType.Publish(b.world, ev)
}

func (b *Bridge) regionRemoved(ev photosphere.RegionEvent) {
	if ev.Index >= 0 && ev.Index < len(b.regions) {
		b.world.Remove(b.regions[ev.Index])
		b.regions = append(b.regions[:ev.Index], b.regions[ev.Index+1:]...)
	}
	RegionRemovedEventType.Publish(b.world, ev)
}

// RegionEntity returns the entity of session region i.
func (b *Bridge) RegionEntity(i int) (donburi.Entity, bool) {
	if i < 0 || i >= len(b.regions) {
		return 0, false
	}
	return b.regions[i], true
}

// Detach stops forwarding. Region entities stay in the world.
func (b *Bridge) Detach() {
	if !b.attached {
		return
	}
	for _, h := range b.handles {
		h.Remove()
	}
	b.handles = nil
	b.attached = false
}
