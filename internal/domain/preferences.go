package domain

import "encoding/json"

type ControlMode int

const (
	ControlUnset ControlMode = iota
	ControlRemoteFob
	ControlApp
)

func (m ControlMode) String() string {
	switch m {
	case ControlRemoteFob:
		return "remote_fob"
	case ControlApp:
		return "app_control"
	default:
		return "unset"
	}
}

// UserPreferences накапливает ответы пользователя по шагам опроса.
// Поле считается незаданным, пока не вызван соответствующий Set*.
type UserPreferences struct {
	wantsAutostart *bool
	controlMode    ControlMode
	wantsGps       *bool
}

func (p *UserPreferences) SetAutostart(v bool) { p.wantsAutostart = &v }

func (p *UserPreferences) SetControlMode(m ControlMode) { p.controlMode = m }

func (p *UserPreferences) SetGps(v bool) { p.wantsGps = &v }

func (p UserPreferences) Autostart() (bool, bool) {
	if p.wantsAutostart == nil {
		return false, false
	}
	return *p.wantsAutostart, true
}

func (p UserPreferences) ControlMode() (ControlMode, bool) {
	return p.controlMode, p.controlMode != ControlUnset
}

func (p UserPreferences) Gps() (bool, bool) {
	if p.wantsGps == nil {
		return false, false
	}
	return *p.wantsGps, true
}

// Complete — все три ответа получены, можно подбирать товары.
func (p UserPreferences) Complete() bool {
	return p.wantsAutostart != nil && p.controlMode != ControlUnset && p.wantsGps != nil
}

type preferencesJSON struct {
	WantsAutostart *bool       `json:"wants_autostart,omitempty"`
	ControlMode    ControlMode `json:"control_mode,omitempty"`
	WantsGps       *bool       `json:"wants_gps,omitempty"`
}

// MarshalJSON нужен для хранения сессии в Redis: поля приватные.
func (p UserPreferences) MarshalJSON() ([]byte, error) {
	return json.Marshal(preferencesJSON{
		WantsAutostart: p.wantsAutostart,
		ControlMode:    p.controlMode,
		WantsGps:       p.wantsGps,
	})
}

func (p *UserPreferences) UnmarshalJSON(data []byte) error {
	var raw preferencesJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.wantsAutostart = raw.WantsAutostart
	p.controlMode = raw.ControlMode
	p.wantsGps = raw.WantsGps
	return nil
}
