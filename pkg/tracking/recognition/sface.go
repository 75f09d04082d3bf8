package recognition

import (
	"fmt"
	"image"
	"math"
	"os"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-follow/pkg/gallery"
)

// SFace cosine-distance threshold on L2-normalised features
// (OpenCV's recommended l2 cut-off for face_recognition_sface).
const sfaceL2Threshold = 1.128

// sfaceScale maps normalised SFace features onto the dlib distance scale so
// sfaceL2Threshold lines up with the 0.6 dlib tolerance.
const sfaceScale = 0.6 / sfaceL2Threshold

// sfaceBackend pairs YuNet detection with FaceRecognizerSF descriptors.
type sfaceBackend struct {
	detector   gocv.FaceDetectorYN
	recognizer gocv.FaceRecognizerSF
}

func newSFace(cfg Config) (*sfaceBackend, error) {
	for _, p := range []string{cfg.DetectorPath(), cfg.RecognizerPath()} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, p)
		}
	}

	// Input size is reset per image
	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.DetectorPath(),
		"",
		image.Pt(320, 320),
		float32(cfg.DetectThreshold),
		0.3,  // NMS
		5000, // top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)
	recognizer := gocv.NewFaceRecognizerSF(cfg.RecognizerPath(), "")

	return &sfaceBackend{detector: detector, recognizer: recognizer}, nil
}

func (b *sfaceBackend) Encode(img gocv.Mat) ([]Face, error) {
	b.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()
	b.detector.Detect(img, &faces)

	out := make([]Face, 0, faces.Rows())
	for r := 0; r < faces.Rows(); r++ {
		// YuNet rows: x, y, w, h, 5 landmark pairs, score
		x := int(faces.GetFloatAt(r, 0))
		y := int(faces.GetFloatAt(r, 1))
		w := int(faces.GetFloatAt(r, 2))
		h := int(faces.GetFloatAt(r, 3))

		desc, err := b.feature(img, faces, r)
		if err != nil {
			return nil, err
		}
		out = append(out, Face{
			Rect:       image.Rect(x, y, x+w, y+h),
			Descriptor: desc,
		})
	}
	return out, nil
}

func (b *sfaceBackend) feature(img, faces gocv.Mat, row int) (gallery.Descriptor, error) {
	box := faces.RowRange(row, row+1)
	defer box.Close()

	aligned := gocv.NewMat()
	defer aligned.Close()
	b.recognizer.AlignCrop(img, box, &aligned)

	feat := gocv.NewMat()
	defer feat.Close()
	b.recognizer.Feature(aligned, &feat)

	data, err := feat.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("sface feature: %w", err)
	}
	return normalise(data, sfaceScale), nil
}

// normalise copies v scaled to length scale.
func normalise(v []float32, scale float64) gallery.Descriptor {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make(gallery.Descriptor, len(v))
	if sum == 0 {
		return out
	}
	k := scale / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * k)
	}
	return out
}

func (b *sfaceBackend) Close() error {
	b.detector.Close()
	b.recognizer.Close()
	return nil
}
