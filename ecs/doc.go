// Package ecs bridges photosphere viewer notifications into a [Donburi]
// world.
//
// Camera moves and zoom changes are published as typed events, and every
// labeled region lives as an entity carrying a [RegionComponent], so ECS
// systems can query the annotation set directly.
//
// Usage:
//
//	bridge := ecs.Attach(world, viewer)
//	defer bridge.Detach()
//	ecs.PositionEventType.Subscribe(world, onMove)
//	// every tick:
//	events.ProcessAllEvents(world)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
