package protocol

// Commands accepted by the device.
const (
	CmdGet = "get"
	CmdSet = "set"
)

// Message targets. The device echoes the target of a request in its
// response, and uses the same values for unsolicited pushes.
const (
	TargetEQViewInfo      = "EQ_VIEW_INFO"
	TargetSpkListViewInfo = "SPK_LIST_VIEW_INFO"
	TargetPlayInfo        = "PLAY_INFO"
	TargetFuncViewInfo    = "FUNC_VIEW_INFO"
	TargetSettingViewInfo = "SETTING_VIEW_INFO"
	TargetProductInfo     = "PRODUCT_INFO"
	TargetC4ASettingInfo  = "C4A_SETTING_INFO"
	TargetRadioViewInfo   = "RADIO_VIEW_INFO"
	TargetShareAPInfo     = "SHARE_AP_INFO"
	TargetUpdateViewInfo  = "UPDATE_VIEW_INFO"
	TargetBuildInfoDev    = "BUILD_INFO_DEV"
	TargetOptionInfoDev   = "OPTION_INFO_DEV"
	TargetMACInfoDev      = "MAC_INFO_DEV"
	TargetMemMonDev       = "MEM_MON_DEV"
	TargetTestDev         = "TEST_DEV"
	TargetTestToneReq     = "TEST_TONE_REQ"
	TargetFactorySetReq   = "FACTORY_SET_REQ"
)

// Message is one logical protocol message: a JSON document carried in an
// encrypted frame. Outgoing messages are immutable once constructed; the
// façade builds them and the transport serializes them.
type Message struct {
	Cmd  string         `json:"cmd,omitempty"`
	Msg  string         `json:"msg"`
	Data map[string]any `json:"data,omitempty"`
}

// Get constructs an information request for a target.
func Get(target string) Message {
	return Message{Cmd: CmdGet, Msg: target}
}

// Set constructs a write command for a target.
func Set(target string, data map[string]any) Message {
	return Message{Cmd: CmdSet, Msg: target, Data: data}
}

// SetValue constructs a write command carrying a single key/value pair,
// the shape used by nearly every setting on the device.
func SetValue(target, key string, value any) Message {
	return Set(target, map[string]any{key: value})
}
