// Package soundbar is the public operation surface for controlling an LG
// soundbar. It validates arguments locally, builds protocol messages, and
// delegates transmission and response correlation to internal/transport.
//
// One Client controls one device over one persistent connection. Methods
// are safe for concurrent use; ordering between concurrent operations on
// the same message target follows the transport's one-pending-call-per-
// target rule.
package soundbar

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tmholter/lgbar/internal/logging"
	"github.com/tmholter/lgbar/internal/protocol"
	"github.com/tmholter/lgbar/internal/transport"
)

// DefaultPort is the TCP control port every LG soundbar listens on.
const DefaultPort = 9741

// caller is the slice of transport.Conn the client depends on; tests
// substitute a stub to exercise validation and decoding without a socket.
type caller interface {
	Call(ctx context.Context, msg protocol.Message) (protocol.Message, error)
	Send(msg protocol.Message) error
	Close() error
	Done() <-chan struct{}
	Err() error
}

// Client is a connected soundbar.
type Client struct {
	conn    caller
	state   *stateCache
	onEvent func(protocol.Message)
	log     *zap.Logger
}

type options struct {
	port        int
	dialTimeout time.Duration
	onEvent     func(protocol.Message)
	log         *zap.Logger
}

// Option configures Connect.
type Option func(*options)

// WithPort overrides the control port.
func WithPort(port int) Option {
	return func(o *options) { o.port = port }
}

// WithDialTimeout overrides the connect timeout.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) { o.dialTimeout = d }
}

// WithEventHandler installs a callback for unsolicited device pushes (and
// late responses to abandoned calls). The handler runs on the receive
// goroutine and must not block.
func WithEventHandler(fn func(protocol.Message)) Option {
	return func(o *options) { o.onEvent = fn }
}

// WithLogger overrides the package logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// Connect dials the device and returns a ready Client.
func Connect(host string, opts ...Option) (*Client, error) {
	o := options{
		port:        DefaultPort,
		dialTimeout: transport.DefaultDialTimeout,
		log:         logging.GetLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		state:   &stateCache{},
		onEvent: o.onEvent,
		log:     o.log,
	}

	addr := net.JoinHostPort(host, strconv.Itoa(o.port))
	conn, err := transport.Dial(addr,
		transport.WithDialTimeout(o.dialTimeout),
		transport.WithLogger(o.log),
		transport.WithNotifyHandler(c.handleNotification),
	)
	if err != nil {
		return nil, err
	}
	c.conn = conn

	c.log.Info("soundbar connected", zap.String("addr", addr))
	return c, nil
}

// Close tears down the connection. Safe to call more than once.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Done is closed when the connection reaches its terminal state.
func (c *Client) Done() <-chan struct{} {
	return c.conn.Done()
}

// Err reports why the connection ended, nil while it is alive.
func (c *Client) Err() error {
	return c.conn.Err()
}

// State returns the last known device state snapshot.
func (c *Client) State() State {
	return c.state.snapshot()
}

func (c *Client) handleNotification(msg protocol.Message) {
	c.state.absorb(msg)
	if c.onEvent != nil {
		c.onEvent(msg)
	}
}

// call performs one request/response exchange and folds the response into
// the state snapshot.
func (c *Client) call(ctx context.Context, msg protocol.Message) (protocol.Message, error) {
	resp, err := c.conn.Call(ctx, msg)
	if err != nil {
		return protocol.Message{}, err
	}
	c.state.absorb(resp)
	return resp, nil
}

// getInfo issues a get for target and returns the response data.
func (c *Client) getInfo(ctx context.Context, target string) (map[string]any, error) {
	resp, err := c.call(ctx, protocol.Get(target))
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", target, err)
	}
	return resp.Data, nil
}

// setSetting writes one SETTING_VIEW_INFO key and waits for the ack.
func (c *Client) setSetting(ctx context.Context, key string, value any) error {
	if _, err := c.call(ctx, protocol.SetValue(protocol.TargetSettingViewInfo, key, value)); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Typed getters.

// SpeakerInfo returns master volume and mute state.
func (c *Client) SpeakerInfo(ctx context.Context) (*SpeakerInfo, error) {
	data, err := c.getInfo(ctx, protocol.TargetSpkListViewInfo)
	if err != nil {
		return nil, err
	}
	var info SpeakerInfo
	if err := decodeData(data, &info); err != nil {
		return nil, fmt.Errorf("decode speaker info: %w", err)
	}
	return &info, nil
}

// EqualizerInfo returns the active preset and the ones the device offers.
func (c *Client) EqualizerInfo(ctx context.Context) (*EqualizerInfo, error) {
	data, err := c.getInfo(ctx, protocol.TargetEQViewInfo)
	if err != nil {
		return nil, err
	}
	var info EqualizerInfo
	if err := decodeData(data, &info); err != nil {
		return nil, fmt.Errorf("decode equalizer info: %w", err)
	}
	return &info, nil
}

// FunctionInfo returns the active input source.
func (c *Client) FunctionInfo(ctx context.Context) (*FunctionInfo, error) {
	data, err := c.getInfo(ctx, protocol.TargetFuncViewInfo)
	if err != nil {
		return nil, err
	}
	var info FunctionInfo
	if err := decodeData(data, &info); err != nil {
		return nil, fmt.Errorf("decode function info: %w", err)
	}
	return &info, nil
}

// Settings returns the feature toggles and speaker trims.
func (c *Client) Settings(ctx context.Context) (*Settings, error) {
	data, err := c.getInfo(ctx, protocol.TargetSettingViewInfo)
	if err != nil {
		return nil, err
	}
	var settings Settings
	if err := decodeData(data, &settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &settings, nil
}

// Raw getters for targets whose payloads vary by model and firmware.

// ProductInfo returns model and firmware identification.
func (c *Client) ProductInfo(ctx context.Context) (map[string]any, error) {
	return c.getInfo(ctx, protocol.TargetProductInfo)
}

// PlayInfo returns current playback metadata.
func (c *Client) PlayInfo(ctx context.Context) (map[string]any, error) {
	return c.getInfo(ctx, protocol.TargetPlayInfo)
}

// RadioInfo returns FM tuner state.
func (c *Client) RadioInfo(ctx context.Context) (map[string]any, error) {
	return c.getInfo(ctx, protocol.TargetRadioViewInfo)
}

// AccessPointInfo returns the device's network sharing configuration.
func (c *Client) AccessPointInfo(ctx context.Context) (map[string]any, error) {
	return c.getInfo(ctx, protocol.TargetShareAPInfo)
}

// UpdateInfo returns firmware update status.
func (c *Client) UpdateInfo(ctx context.Context) (map[string]any, error) {
	return c.getInfo(ctx, protocol.TargetUpdateViewInfo)
}

// ChromecastInfo returns the Chromecast built-in configuration.
func (c *Client) ChromecastInfo(ctx context.Context) (map[string]any, error) {
	return c.getInfo(ctx, protocol.TargetC4ASettingInfo)
}

// BuildInfo returns firmware build details (developer target).
func (c *Client) BuildInfo(ctx context.Context) (map[string]any, error) {
	return c.getInfo(ctx, protocol.TargetBuildInfoDev)
}

// OptionInfo returns factory option flags (developer target).
func (c *Client) OptionInfo(ctx context.Context) (map[string]any, error) {
	return c.getInfo(ctx, protocol.TargetOptionInfoDev)
}

// MACInfo returns the device MAC addresses (developer target).
func (c *Client) MACInfo(ctx context.Context) (map[string]any, error) {
	return c.getInfo(ctx, protocol.TargetMACInfoDev)
}

// MemoryMonitorInfo returns firmware memory statistics (developer target).
func (c *Client) MemoryMonitorInfo(ctx context.Context) (map[string]any, error) {
	return c.getInfo(ctx, protocol.TargetMemMonDev)
}

// TestInfo returns self-test data (developer target).
func (c *Client) TestInfo(ctx context.Context) (map[string]any, error) {
	return c.getInfo(ctx, protocol.TargetTestDev)
}

// Setters.

// SetVolume sets the master volume.
func (c *Client) SetVolume(ctx context.Context, level int) error {
	if err := validateRange("volume", level, MinVolume, MaxVolume); err != nil {
		return err
	}
	_, err := c.call(ctx, protocol.SetValue(protocol.TargetSpkListViewInfo, "i_vol", level))
	return err
}

// SetMute mutes or unmutes the device.
func (c *Client) SetMute(ctx context.Context, muted bool) error {
	_, err := c.call(ctx, protocol.SetValue(protocol.TargetSpkListViewInfo, "b_mute", muted))
	return err
}

// SetEqualizer activates a sound preset.
func (c *Client) SetEqualizer(ctx context.Context, eq Equalizer) error {
	if err := validateEqualizer(eq); err != nil {
		return err
	}
	_, err := c.call(ctx, protocol.SetValue(protocol.TargetEQViewInfo, "i_curr_eq", int(eq)))
	return err
}

// SetFunction switches the input source.
func (c *Client) SetFunction(ctx context.Context, fn Function) error {
	if err := validateFunction(fn); err != nil {
		return err
	}
	_, err := c.call(ctx, protocol.SetValue(protocol.TargetFuncViewInfo, "i_curr_func", int(fn)))
	return err
}

// SetName renames the device.
func (c *Client) SetName(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	return c.setSetting(ctx, "s_user_name", name)
}

// SetNightMode toggles night mode.
func (c *Client) SetNightMode(ctx context.Context, enabled bool) error {
	return c.setSetting(ctx, "b_night_mode", enabled)
}

// SetAutoVolume toggles automatic volume leveling.
func (c *Client) SetAutoVolume(ctx context.Context, enabled bool) error {
	return c.setSetting(ctx, "b_auto_vol", enabled)
}

// SetDynamicRangeControl toggles DRC.
func (c *Client) SetDynamicRangeControl(ctx context.Context, enabled bool) error {
	return c.setSetting(ctx, "b_drc", enabled)
}

// SetNeuralX toggles DTS Neural:X upmixing.
func (c *Client) SetNeuralX(ctx context.Context, enabled bool) error {
	return c.setSetting(ctx, "b_neuralx", enabled)
}

// SetAVSync sets the audio delay in milliseconds.
func (c *Client) SetAVSync(ctx context.Context, ms int) error {
	if err := validateRange("av sync", ms, MinAVSync, MaxAVSync); err != nil {
		return err
	}
	return c.setSetting(ctx, "i_av_sync", ms)
}

// SetWooferLevel sets the subwoofer trim.
func (c *Client) SetWooferLevel(ctx context.Context, level int) error {
	if err := validateRange("woofer level", level, MinWooferLevel, MaxWooferLevel); err != nil {
		return err
	}
	return c.setSetting(ctx, "i_woofer_level", level)
}

// SetRearSpeakersEnabled toggles the rear speaker pair.
func (c *Client) SetRearSpeakersEnabled(ctx context.Context, enabled bool) error {
	return c.setSetting(ctx, "b_rear", enabled)
}

// SetRearLevel sets the rear speaker trim.
func (c *Client) SetRearLevel(ctx context.Context, level int) error {
	if err := validateRange("rear level", level, MinChannelLevel, MaxChannelLevel); err != nil {
		return err
	}
	return c.setSetting(ctx, "i_rear_level", level)
}

// SetTopLevel sets the up-firing speaker trim.
func (c *Client) SetTopLevel(ctx context.Context, level int) error {
	if err := validateRange("top level", level, MinChannelLevel, MaxChannelLevel); err != nil {
		return err
	}
	return c.setSetting(ctx, "i_top_level", level)
}

// SetCenterLevel sets the center channel trim.
func (c *Client) SetCenterLevel(ctx context.Context, level int) error {
	if err := validateRange("center level", level, MinChannelLevel, MaxChannelLevel); err != nil {
		return err
	}
	return c.setSetting(ctx, "i_center_level", level)
}

// SetTVRemote toggles control via the TV remote.
func (c *Client) SetTVRemote(ctx context.Context, enabled bool) error {
	return c.setSetting(ctx, "b_tv_remote", enabled)
}

// SetAutoPower toggles power-on when an input becomes active.
func (c *Client) SetAutoPower(ctx context.Context, enabled bool) error {
	return c.setSetting(ctx, "b_auto_power", enabled)
}

// SetAutoDisplay toggles the automatic front display.
func (c *Client) SetAutoDisplay(ctx context.Context, enabled bool) error {
	return c.setSetting(ctx, "b_auto_display", enabled)
}

// SetBluetoothStandby toggles wake-over-Bluetooth.
func (c *Client) SetBluetoothStandby(ctx context.Context, enabled bool) error {
	return c.setSetting(ctx, "b_bt_standby", enabled)
}

// SetBluetoothRestriction toggles the Bluetooth pairing restriction.
func (c *Client) SetBluetoothRestriction(ctx context.Context, enabled bool) error {
	return c.setSetting(ctx, "b_conn_bt_limit", enabled)
}

// SetSleepTimer arms the sleep timer; 0 disables it.
func (c *Client) SetSleepTimer(ctx context.Context, minutes int) error {
	if err := validateRange("sleep timer", minutes, MinSleepMinutes, MaxSleepMinutes); err != nil {
		return err
	}
	return c.setSetting(ctx, "i_sleep_time", minutes)
}

// RunTestTone plays the speaker test tone. The device does not acknowledge
// this command, so it is fire-and-forget.
func (c *Client) RunTestTone() error {
	return c.conn.Send(protocol.Message{Cmd: protocol.CmdSet, Msg: protocol.TargetTestToneReq})
}

// FactoryReset restores factory settings. The device reboots without
// replying, so it is fire-and-forget; the connection will drop.
func (c *Client) FactoryReset() error {
	return c.conn.Send(protocol.Message{Cmd: protocol.CmdSet, Msg: protocol.TargetFactorySetReq})
}
