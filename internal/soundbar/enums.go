package soundbar

import (
	"fmt"
	"strings"
)

// Equalizer is a sound preset. Values are the identifiers the device
// firmware uses on the wire.
type Equalizer int

const (
	EqStandard Equalizer = iota
	EqBass
	EqFlat
	EqBoost
	EqTrebleBass
	EqUser
	EqMusic
	EqCinema
	EqNight
	EqNews
	EqVoice
	EqIASound
	EqASC
	EqMovie
	EqBassBlast
	EqDolbyAtmos
	EqDTSVirtualX
	EqBassBoostPlus
	EqDTSX
)

var equalizerNames = map[Equalizer]string{
	EqStandard:      "Standard",
	EqBass:          "Bass",
	EqFlat:          "Flat",
	EqBoost:         "Boost",
	EqTrebleBass:    "Treble and Bass",
	EqUser:          "User",
	EqMusic:         "Music",
	EqCinema:        "Cinema",
	EqNight:         "Night",
	EqNews:          "News",
	EqVoice:         "Voice",
	EqIASound:       "AI Sound Pro",
	EqASC:           "Adaptive Sound Control",
	EqMovie:         "Movie",
	EqBassBlast:     "Bass Blast",
	EqDolbyAtmos:    "Dolby Atmos",
	EqDTSVirtualX:   "DTS Virtual X",
	EqBassBoostPlus: "Bass Boost Plus",
	EqDTSX:          "DTS X",
}

// Valid reports whether e is a preset the device understands.
func (e Equalizer) Valid() bool {
	_, ok := equalizerNames[e]
	return ok
}

// String returns the display name for the preset.
func (e Equalizer) String() string {
	if name, ok := equalizerNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Unknown Equalizer (%d)", int(e))
}

// Function is an input source. Values are the identifiers the device
// firmware uses on the wire.
type Function int

const (
	FuncWiFi Function = iota
	FuncBluetooth
	FuncPortable
	FuncAux
	FuncOptical
	FuncCP
	FuncHDMI
	FuncARC
	FuncSpotify
	FuncOptical2
	FuncHDMI2
	FuncHDMI3
	FuncLGTV
	FuncMic
	FuncChromecast
	FuncOpticalHDMIARC
	FuncLGOptical
	FuncFM
	FuncUSB
	FuncUSB2
)

var functionNames = map[Function]string{
	FuncWiFi:           "Wifi",
	FuncBluetooth:      "Bluetooth",
	FuncPortable:       "Portable",
	FuncAux:            "Aux",
	FuncOptical:        "Optical",
	FuncCP:             "CP",
	FuncHDMI:           "HDMI",
	FuncARC:            "ARC",
	FuncSpotify:        "Spotify",
	FuncOptical2:       "Optical2",
	FuncHDMI2:          "HDMI2",
	FuncHDMI3:          "HDMI3",
	FuncLGTV:           "LG TV",
	FuncMic:            "Mic",
	FuncChromecast:     "Chromecast",
	FuncOpticalHDMIARC: "Optical/HDMI ARC",
	FuncLGOptical:      "LG Optical",
	FuncFM:             "FM",
	FuncUSB:            "USB",
	FuncUSB2:           "USB2",
}

// Valid reports whether f is an input the device understands.
func (f Function) Valid() bool {
	_, ok := functionNames[f]
	return ok
}

// String returns the display name for the input source.
func (f Function) String() string {
	if name, ok := functionNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Unknown Function (%d)", int(f))
}

// ParseEqualizer resolves a preset by display name, case-insensitively.
func ParseEqualizer(name string) (Equalizer, bool) {
	for eq, n := range equalizerNames {
		if strings.EqualFold(n, name) {
			return eq, true
		}
	}
	return 0, false
}

// ParseFunction resolves an input source by display name,
// case-insensitively.
func ParseFunction(name string) (Function, bool) {
	for fn, n := range functionNames {
		if strings.EqualFold(n, name) {
			return fn, true
		}
	}
	return 0, false
}
