package photosphere

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ErrLoadSuperseded reports that a load was abandoned because a newer one
// was started.
var ErrLoadSuperseded = errors.New("photosphere: load superseded")

var dataURI = regexp.MustCompile(`^data:image/[a-z]+;base64,`)

// Texture is the equirectangular canvas mapped onto the sphere.
type Texture struct {
	Image    *image.NRGBA
	Geometry PanoramaGeometry
	// Source is the path, URL or "inline" for data URIs.
	Source string
}

// Size returns the canvas size in pixels.
func (t *Texture) Size() (w, h int) {
	b := t.Image.Bounds()
	return b.Dx(), b.Dy()
}

// BuildTexture paints img at the crop rectangle of a transparent canvas of
// the full panorama size.
func BuildTexture(img image.Image, g PanoramaGeometry) (*image.NRGBA, error) {
	w, h := g.CanvasSize()
	r := g.CropRect()
	if w <= 0 || h <= 0 || r.Dx() <= 0 || r.Dy() <= 0 {
		return nil, fmt.Errorf("%w: canvas %dx%d, crop %v", ErrInvalidGeometry, w, h, r)
	}
	canvas := imaging.New(w, h, color.NRGBA{})
	b := img.Bounds()
	if b.Dx() != r.Dx() || b.Dy() != r.Dy() {
		img = imaging.Resize(img, r.Dx(), r.Dy(), imaging.Lanczos)
	}
	return imaging.Paste(canvas, img, r.Min), nil
}

// LoadOptions control how a panorama is read and laid out.
type LoadOptions struct {
	Crop CropSpec
	View CapturedView
	// ReadXMP enables GPano metadata lookup. It is ignored for data URIs and
	// when Crop is not empty.
	ReadXMP         bool
	MaxTextureWidth int
	// HTTPTimeout bounds URL downloads. Zero means 30s.
	HTTPTimeout time.Duration
}

// LoadPanorama reads source (file path, http(s) URL or data URI), decodes
// it, resolves its geometry and builds the sphere texture.
func LoadPanorama(ctx context.Context, source string, opts LoadOptions) (*Texture, error) {
	data, inline, err := readSource(ctx, source, opts.HTTPTimeout)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode panorama: %w", err)
	}

	geomOpts := GeometryOptions{
		Crop:            opts.Crop,
		View:            opts.View,
		MaxTextureWidth: opts.MaxTextureWidth,
	}
	if opts.ReadXMP && !inline && opts.Crop.IsEmpty() {
		if crop, ok := ReadGPano(data); ok {
			geomOpts.Crop = crop
			geomOpts.Recalculate = true
		}
	}

	b := img.Bounds()
	g, err := ResolveGeometry(b.Dx(), b.Dy(), geomOpts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	canvas, err := BuildTexture(img, g)
	if err != nil {
		return nil, err
	}
	name := source
	if inline {
		name = "inline"
	}
	return &Texture{Image: canvas, Geometry: g, Source: name}, nil
}

// readSource returns the raw bytes of source. inline is true for data URIs.
func readSource(ctx context.Context, source string, timeout time.Duration) (data []byte, inline bool, err error) {
	switch {
	case dataURI.MatchString(source):
		payload := source[dataURI.FindStringIndex(source)[1]:]
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, true, fmt.Errorf("decode data uri: %w", err)
		}
		return data, true, nil
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		data, err := download(ctx, source, timeout)
		return data, false, err
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, false, fmt.Errorf("read panorama: %w", err)
		}
		return data, false, nil
	}
}

func download(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "photosphere/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download panorama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download panorama: HTTP %d %s", resp.StatusCode, resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("download panorama: not an image (Content-Type: %s)", ct)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read panorama body: %w", err)
	}
	return data, nil
}

// LoadResult is the outcome of one Loader.Start.
type LoadResult struct {
	Texture *Texture
	Err     error
}

type loadResult struct {
	gen uint64
	LoadResult
}

// Loader runs LoadPanorama off the render thread. Start and Poll must be
// called from the same goroutine; each Start abandons the previous load.
type Loader struct {
	opts    LoadOptions
	gen     uint64
	cancel  context.CancelFunc
	results chan loadResult
}

// NewLoader creates a loader using opts for every load.
func NewLoader(opts LoadOptions) *Loader {
	return &Loader{opts: opts, results: make(chan loadResult, 1)}
}

// Start begins loading source, cancelling any load still in flight.
func (l *Loader) Start(ctx context.Context, source string) {
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	gen := l.gen
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	opts := l.opts

	go func() {
		tex, err := LoadPanorama(ctx, source, opts)
		if err != nil && ctx.Err() != nil {
			err = fmt.Errorf("%w: %s", ErrLoadSuperseded, source)
		}
		select {
		case l.results <- loadResult{gen: gen, LoadResult: LoadResult{Texture: tex, Err: err}}:
		case <-ctx.Done():
		}
	}()
}

// Poll returns a finished result of the most recent Start, if any. Results
// of superseded loads are discarded.
func (l *Loader) Poll() (LoadResult, bool) {
	for {
		select {
		case r := <-l.results:
			if r.gen != l.gen {
				continue
			}
			l.Close()
			return r.LoadResult, true
		default:
			return LoadResult{}, false
		}
	}
}

// Pending reports whether a load is in flight.
func (l *Loader) Pending() bool {
	return l.cancel != nil
}

// Close cancels any load in flight.
func (l *Loader) Close() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}
