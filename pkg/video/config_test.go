package video

import "testing"

func TestPreset(t *testing.T) {
	tello, err := Preset(PresetTello)
	if err != nil {
		t.Fatal(err)
	}
	if tello.Source != TelloStreamURL || tello.Width != 720 || tello.Height != 480 {
		t.Errorf("tello preset = %+v", tello)
	}

	cam, err := Preset(PresetWebcam)
	if err != nil {
		t.Fatal(err)
	}
	if idx, ok := cam.DeviceIndex(); !ok || idx != 0 {
		t.Errorf("webcam DeviceIndex = %d, %v", idx, ok)
	}

	if _, err := Preset("ir"); err == nil {
		t.Error("unknown preset should fail")
	}
}

func TestDeviceIndex(t *testing.T) {
	tests := []struct {
		source string
		want   int
		ok     bool
	}{
		{"0", 0, true},
		{"2", 2, true},
		{"-1", 0, false},
		{TelloStreamURL, 0, false},
		{"clip.mp4", 0, false},
	}
	for _, tt := range tests {
		got, ok := Config{Source: tt.source}.DeviceIndex()
		if got != tt.want || ok != tt.ok {
			t.Errorf("DeviceIndex(%q) = %d, %v; want %d, %v", tt.source, got, ok, tt.want, tt.ok)
		}
	}
}

func TestValidate(t *testing.T) {
	if errs := DefaultConfig().Validate(); len(errs) != 0 {
		t.Errorf("default config invalid: %v", errs)
	}

	bad := Config{Width: 10, Height: 10, Quality: 0}
	if errs := bad.Validate(); len(errs) != 4 {
		t.Errorf("got %d errors, want 4: %v", len(errs), errs)
	}
}
