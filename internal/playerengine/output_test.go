// ABOUTME: Tests for audio output
// ABOUTME: Tests volume control math in isolation from the real oto device
package playerengine

import "testing"

func TestVolumeMultiplier(t *testing.T) {
	tests := []struct {
		volume   int
		muted    bool
		expected float64
	}{
		{100, false, 1.0},
		{50, false, 0.5},
		{0, false, 0.0},
		{80, true, 0.0},
	}

	for _, tt := range tests {
		result := getVolumeMultiplier(tt.volume, tt.muted)
		if result != tt.expected {
			t.Errorf("volume=%d, muted=%v: expected %f, got %f",
				tt.volume, tt.muted, tt.expected, result)
		}
	}
}

func TestApplyVolume(t *testing.T) {
	samples := []int16{1000, -1000, 500, -500}

	result := applyVolume(samples, 50, false)

	if result[0] != 500 {
		t.Errorf("expected 500, got %d", result[0])
	}
	if result[1] != -500 {
		t.Errorf("expected -500, got %d", result[1])
	}
}

func TestApplyVolumeMuted(t *testing.T) {
	samples := []int16{1000, -1000}

	result := applyVolume(samples, 80, true)

	for i, s := range result {
		if s != 0 {
			t.Errorf("sample %d: expected 0 when muted, got %d", i, s)
		}
	}
}
