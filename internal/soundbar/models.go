package soundbar

import "encoding/json"

// Response payloads use the firmware's field naming: i_ for integers,
// b_ for booleans, s_ for strings. Only the fields the original vendor
// app is known to read are modeled; everything else stays available via
// the raw data map returned by the *Raw getters.

// SpeakerInfo is the SPK_LIST_VIEW_INFO payload: master volume and mute.
type SpeakerInfo struct {
	Volume    int  `json:"i_vol"`
	MinVolume int  `json:"i_vol_min"`
	MaxVolume int  `json:"i_vol_max"`
	Muted     bool `json:"b_mute"`
}

// EqualizerInfo is the EQ_VIEW_INFO payload.
type EqualizerInfo struct {
	Current   Equalizer `json:"i_curr_eq"`
	Supported []int     `json:"ai_eq_list"`
}

// FunctionInfo is the FUNC_VIEW_INFO payload.
type FunctionInfo struct {
	Current     Function `json:"i_curr_func"`
	IsBTPairing bool     `json:"b_connect"`
}

// Settings is the SETTING_VIEW_INFO payload: user-visible feature toggles
// and per-channel speaker trims.
type Settings struct {
	Name                 string `json:"s_user_name"`
	NightMode            bool   `json:"b_night_mode"`
	AutoVolume           bool   `json:"b_auto_vol"`
	DynamicRangeControl  bool   `json:"b_drc"`
	NeuralX              bool   `json:"b_neuralx"`
	AVSync               int    `json:"i_av_sync"`
	WooferLevel          int    `json:"i_woofer_level"`
	RearSpeakersEnabled  bool   `json:"b_rear"`
	RearLevel            int    `json:"i_rear_level"`
	TopLevel             int    `json:"i_top_level"`
	CenterLevel          int    `json:"i_center_level"`
	TVRemote             bool   `json:"b_tv_remote"`
	AutoPower            bool   `json:"b_auto_power"`
	AutoDisplay          bool   `json:"b_auto_display"`
	BluetoothStandby     bool   `json:"b_bt_standby"`
	BluetoothRestriction bool   `json:"b_conn_bt_limit"`
	SleepMinutes         int    `json:"i_sleep_time"`
}

// decodeData maps a response's data object onto a typed struct by a JSON
// round trip; unknown keys are ignored, missing keys keep zero values.
func decodeData(data map[string]any, v any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
