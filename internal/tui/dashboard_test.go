package tui

import (
	"testing"

	"github.com/tmholter/lgbar/internal/soundbar"
)

func TestClampVolume(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-1, soundbar.MinVolume},
		{0, 0},
		{20, 20},
		{soundbar.MaxVolume, soundbar.MaxVolume},
		{soundbar.MaxVolume + 1, soundbar.MaxVolume},
	}
	for _, tt := range tests {
		if got := clampVolume(tt.in); got != tt.want {
			t.Errorf("clampVolume(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNextFunctionWrapsAround(t *testing.T) {
	if got := nextFunction(soundbar.FuncWiFi); got != soundbar.FuncWiFi+1 {
		t.Errorf("next after FuncWiFi = %v, want %v", got, soundbar.FuncWiFi+1)
	}
	if got := nextFunction(soundbar.FuncUSB2); got != soundbar.FuncWiFi {
		t.Errorf("next after last function = %v, want wrap to %v", got, soundbar.FuncWiFi)
	}
}

func TestNextEqualizerPrefersSupportedList(t *testing.T) {
	supported := []soundbar.Equalizer{soundbar.EqStandard, soundbar.EqBass, soundbar.EqMovie}

	if got := nextEqualizer(soundbar.EqBass, supported); got != soundbar.EqMovie {
		t.Errorf("next after EqBass = %v, want EqMovie", got)
	}
	if got := nextEqualizer(soundbar.EqMovie, supported); got != soundbar.EqStandard {
		t.Errorf("next after last supported = %v, want wrap to EqStandard", got)
	}

	// Current mode not in the list: start from the beginning.
	if got := nextEqualizer(soundbar.EqNews, supported); got != soundbar.EqStandard {
		t.Errorf("next from unsupported mode = %v, want EqStandard", got)
	}
}

func TestNextEqualizerWithoutSupportedListCyclesAll(t *testing.T) {
	if got := nextEqualizer(soundbar.EqStandard, nil); got != soundbar.EqStandard+1 {
		t.Errorf("next after EqStandard = %v, want %v", got, soundbar.EqStandard+1)
	}
	if got := nextEqualizer(soundbar.EqDTSX, nil); got != soundbar.EqStandard {
		t.Errorf("next after last mode = %v, want wrap to EqStandard", got)
	}
}
