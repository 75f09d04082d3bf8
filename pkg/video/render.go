package video

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-follow/pkg/tracking"
)

// Annotation colours
var (
	boxColor  = color.RGBA{R: 255, A: 255}
	textColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

const labelStrip = 35 // filled label strip height in pixels

// Renderer draws annotations onto frames and encodes them as JPEG.
type Renderer struct {
	quality   int
	faceCount bool
}

// NewRenderer creates a renderer from the video config.
func NewRenderer(cfg Config) *Renderer {
	q := cfg.Quality
	if q <= 0 || q > 100 {
		q = DefaultConfig().Quality
	}
	return &Renderer{quality: q, faceCount: cfg.ShowFaceCount}
}

// Draw overlays every annotation: a box round the face, a filled strip
// along its bottom edge and the label text inside the strip.
func (r *Renderer) Draw(frame *gocv.Mat, anns []tracking.Annotation) {
	for _, a := range anns {
		b := a.Box
		gocv.Rectangle(frame, b.Rect(), boxColor, 2)
		gocv.Rectangle(frame, image.Rect(b.Left, b.Bottom-labelStrip, b.Right, b.Bottom), boxColor, -1)
		gocv.PutText(frame, a.Label, image.Pt(b.Left+6, b.Bottom-6), gocv.FontHersheyDuplex, 0.5, textColor, 1)
	}

	if r.faceCount {
		gocv.PutText(frame, fmt.Sprintf("Faces: %d", len(anns)), image.Pt(10, 25), gocv.FontHersheyComplex, 1, boxColor, 1)
	}
}

// Encode returns frame as JPEG bytes.
func (r *Renderer) Encode(frame gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, frame, []int{int(gocv.IMWriteJpegQuality), r.quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Render draws anns onto frame and encodes the result.
func (r *Renderer) Render(frame *gocv.Mat, anns []tracking.Annotation) ([]byte, error) {
	r.Draw(frame, anns)
	return r.Encode(*frame)
}
