package photosphere

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// VOCDocument is a Pascal VOC style annotation file.
type VOCDocument struct {
	XMLName   xml.Name    `xml:"annotation"`
	Folder    string      `xml:"folder"`
	Filename  string      `xml:"filename"`
	Path      string      `xml:"path"`
	Source    VOCSource   `xml:"source"`
	Size      VOCSize     `xml:"size"`
	Segmented int         `xml:"segmented"`
	Objects   []VOCObject `xml:"object"`
}

// VOCSource names the dataset the image belongs to.
type VOCSource struct {
	Database string `xml:"database"`
}

// VOCSize is the size of the annotated image.
type VOCSize struct {
	Width  int `xml:"width"`
	Height int `xml:"height"`
	Depth  int `xml:"depth"`
}

// VOCObject is one labeled region.
type VOCObject struct {
	Name      string    `xml:"name"`
	Pose      string    `xml:"pose"`
	Truncated int       `xml:"truncated"`
	Difficult int       `xml:"difficult"`
	BndBox    VOCBndBox `xml:"bndbox"`
}

// VOCBndBox holds the region corners.
type VOCBndBox struct {
	XMin int `xml:"xmin"`
	YMin int `xml:"ymin"`
	XMax int `xml:"xmax"`
	YMax int `xml:"ymax"`
}

// NewVOCDocument builds a document for the image name of w×h pixels with one
// object per region, in region order.
func NewVOCDocument(name string, w, h int, regions []Region) VOCDocument {
	doc := VOCDocument{
		Filename: stripJPEG(name),
		Size:     VOCSize{Width: w, Height: h, Depth: 3},
		Objects:  make([]VOCObject, 0, len(regions)),
	}
	for _, r := range regions {
		pose := r.Pose
		if pose == "" {
			pose = PoseUnspecified
		}
		doc.Objects = append(doc.Objects, VOCObject{
			Name:      r.Name,
			Pose:      pose,
			Truncated: r.Truncated,
			Difficult: r.Difficult,
			BndBox:    VOCBndBox{XMin: r.XMin, YMin: r.YMin, XMax: r.XMax, YMax: r.YMax},
		})
	}
	return doc
}

// WriteVOC encodes doc as indented XML.
func WriteVOC(w io.Writer, doc VOCDocument) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode voc: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode voc: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Export writes the pixel regions to <dir>/<name>.xml and the spherical
// regions to <dir>/l-<name>.xml, where name is image without a .jpg suffix.
// w and h are the panorama texture size.
func (s *Session) Export(dir, image string, w, h int) (pixelPath, sphericalPath string, err error) {
	base := stripJPEG(filepath.Base(image))
	pixelPath = filepath.Join(dir, base+".xml")
	sphericalPath = filepath.Join(dir, "l-"+base+".xml")

	if err := writeVOCFile(pixelPath, NewVOCDocument(base, w, h, s.pixel)); err != nil {
		return "", "", err
	}
	if err := writeVOCFile(sphericalPath, NewVOCDocument(base, w, h, s.spherical)); err != nil {
		return "", "", err
	}
	return pixelPath, sphericalPath, nil
}

func writeVOCFile(path string, doc VOCDocument) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteVOC(f, doc); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func stripJPEG(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".jpg") {
		return name[:len(name)-len(".jpg")]
	}
	return name
}
