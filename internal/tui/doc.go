// Package tui implements the interactive soundbar dashboard.
//
// The dashboard is a single-screen Bubble Tea application showing the live
// device state (volume, mute, input, sound mode) and accepting direct
// control keys. Device pushes arrive through the client's event handler
// and refresh the view without polling, so a change made with the physical
// remote shows up immediately.
//
// Launch it with Run, which owns the device connection for the lifetime
// of the program:
//
//	err := tui.Run("192.168.1.48", soundbar.WithPort(9741))
package tui
