// Package render draws a photosphere.Viewer with ebiten.
//
// The panorama is mapped onto a sphere mesh of segments × rings cells whose
// vertices are projected through the viewer camera every frame and drawn
// with a single DrawTriangles32 call. Stored regions and the box being
// drawn are stroked on top. In stereo mode each half of the screen gets its
// own view, offset along the camera's right axis.
//
// Game bundles the renderer with an input adapter, a status HUD that serves
// as the viewer navbar and a label prompt:
//
//	v, _ := photosphere.NewViewer(cfg)
//	v.Load(ctx, "")
//	ebiten.RunGame(render.NewGame(v))
package render
