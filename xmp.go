package photosphere

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

var (
	xmpOpen  = []byte("<x:xmpmeta")
	xmpClose = []byte("</x:xmpmeta>")
	gpanoTag = []byte("GPano:")
)

// ReadGPano extracts the Google Photo Sphere crop fields from the XMP packet
// embedded in a JPEG file. ok is false when no packet carrying GPano data is
// present. Fields that are missing or unparsable stay nil.
func ReadGPano(file []byte) (crop CropSpec, ok bool) {
	packet := findGPanoPacket(file)
	if packet == nil {
		return CropSpec{}, false
	}
	crop = CropSpec{
		FullWidth:     gpanoInt(packet, "FullPanoWidthPixels"),
		FullHeight:    gpanoInt(packet, "FullPanoHeightPixels"),
		CroppedWidth:  gpanoInt(packet, "CroppedAreaImageWidthPixels"),
		CroppedHeight: gpanoInt(packet, "CroppedAreaImageHeightPixels"),
		CropX:         gpanoInt(packet, "CroppedAreaLeftPixels"),
		CropY:         gpanoInt(packet, "CroppedAreaTopPixels"),
	}
	return crop, true
}

// findGPanoPacket returns the first <x:xmpmeta> block mentioning GPano.
func findGPanoPacket(file []byte) []byte {
	rest := file
	for {
		a := bytes.Index(rest, xmpOpen)
		if a < 0 {
			return nil
		}
		b := bytes.Index(rest[a:], xmpClose)
		if b < 0 {
			return nil
		}
		packet := rest[a : a+b]
		if bytes.Contains(packet, gpanoTag) {
			return packet
		}
		rest = rest[a+b+len(xmpClose):]
	}
}

// gpanoInt reads GPano:attr in either attribute form (GPano:X="v") or
// element form (<GPano:X>v</GPano:X>).
func gpanoInt(packet []byte, attr string) *float64 {
	key := []byte("GPano:" + attr)
	i := bytes.Index(packet, key)
	if i < 0 {
		return nil
	}
	rest := packet[i+len(key):]

	var raw []byte
	switch {
	case bytes.HasPrefix(rest, []byte(`="`)):
		rest = rest[2:]
		end := bytes.IndexByte(rest, '"')
		if end < 0 {
			return nil
		}
		raw = rest[:end]
	case bytes.HasPrefix(rest, []byte(">")):
		rest = rest[1:]
		end := bytes.IndexByte(rest, '<')
		if end < 0 {
			return nil
		}
		raw = rest[:end]
	default:
		return nil
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return nil
	}
	v := math.Trunc(n)
	return &v
}
