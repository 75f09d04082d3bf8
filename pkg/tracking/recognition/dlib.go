package recognition

import (
	"fmt"
	"os"
	"path/filepath"

	face "github.com/Kagami/go-face"
	"gocv.io/x/gocv"

	"github.com/teslashibe/go-follow/pkg/gallery"
)

// dlib model files go-face loads from ModelDir.
var dlibModels = []string{
	"shape_predictor_5_face_landmarks.dat",
	"dlib_face_recognition_resnet_model_v1.dat",
	"mmod_human_face_detector.dat",
}

// dlibBackend wraps go-face. Frames are handed over as JPEG, which
// go-face decodes itself.
type dlibBackend struct {
	rec *face.Recognizer
}

func newDlib(cfg Config) (*dlibBackend, error) {
	for _, name := range dlibModels {
		p := filepath.Join(cfg.ModelDir, name)
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, p)
		}
	}

	rec, err := face.NewRecognizer(cfg.ModelDir)
	if err != nil {
		return nil, fmt.Errorf("load dlib models: %w", err)
	}
	return &dlibBackend{rec: rec}, nil
}

func (b *dlibBackend) Encode(img gocv.Mat) ([]Face, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	faces, err := b.rec.Recognize(buf.GetBytes())
	if err != nil {
		return nil, fmt.Errorf("dlib recognize: %w", err)
	}

	out := make([]Face, 0, len(faces))
	for _, f := range faces {
		desc := make(gallery.Descriptor, len(f.Descriptor))
		copy(desc, f.Descriptor[:])
		out = append(out, Face{Rect: f.Rectangle, Descriptor: desc})
	}
	return out, nil
}

func (b *dlibBackend) Close() error {
	b.rec.Close()
	return nil
}
