package proto

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Frame type tags as they appear on the wire, grouped by who originates them.
const (
	// Control plane.
	TagRegister         = "client.register"
	TagHello            = "server.hello"
	TagRequestFullState = "server.requestFullState"
	TagSyncPanels       = "client.syncPanels" // legacy bulk-replace path, REST facade only
	TagError            = "error"

	// Remote-originated commands, routed to main sockets.
	TagPanelToggle        = "panel.toggle"
	TagPanelPlay          = "panel.play"
	TagPanelPause         = "panel.pause"
	TagPanelUpdateCode    = "panel.updateCode"
	TagStopAll            = "global.stopAll"
	TagUpdateAll          = "global.updateAll"
	TagMasterSliderChange = "master.sliderChange"
	TagPanelSliderChange  = "panel.sliderChange"

	// Main-originated events, routed to remote sockets.
	TagPanelCreated      = "panel_created"
	TagPanelDeleted      = "panel_deleted"
	TagPanelRenamed      = "panel_renamed"
	TagPanelStateChanged = "panel_state_changed"
	TagPanelSliders      = "panel_sliders"
	TagMasterSliders     = "master.sliders"
	TagMasterSliderValue = "master.sliderValue"
	TagFullState         = "full_state"
	TagStateUpdate       = "state.update"
	TagMetronomeStep     = "metronome.step"
)

// Client types carried in client.register frames.
const (
	ClientTypeMain   = "main"
	ClientTypeRemote = "remote"
)

var ErrUnknownType = errors.New("unknown frame type")

// Direction classifies a tag for routing purposes.
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionControl           // handled by the relay itself
	DirectionCommand           // remote -> main
	DirectionEvent             // main -> remote
)

func (d Direction) String() string {
	switch d {
	case DirectionControl:
		return "control"
	case DirectionCommand:
		return "command"
	case DirectionEvent:
		return "event"
	default:
		return "unknown"
	}
}

// DirectionOf maps a wire tag to its routing direction. Tags the relay has
// never heard of come back as DirectionUnknown; the router forwards those
// toward the main sockets.
func DirectionOf(tag string) Direction {
	switch tag {
	case TagRegister, TagHello, TagRequestFullState, TagSyncPanels, TagError:
		return DirectionControl
	case TagPanelToggle, TagPanelPlay, TagPanelPause, TagPanelUpdateCode,
		TagStopAll, TagUpdateAll, TagMasterSliderChange, TagPanelSliderChange:
		return DirectionCommand
	case TagPanelCreated, TagPanelDeleted, TagPanelRenamed, TagPanelStateChanged,
		TagPanelSliders, TagMasterSliders, TagMasterSliderValue, TagFullState,
		TagStateUpdate, TagMetronomeStep:
		return DirectionEvent
	default:
		return DirectionUnknown
	}
}

// Frame is the tagged union of everything that travels over a padlink socket.
// One variant per wire tag; the router dispatches with a type switch instead
// of a dynamically keyed map.
type Frame interface {
	Tag() string
}

// Panel is the per-panel payload carried inside full_state and
// client.syncPanels. The panel module owns its semantics; this package only
// gives it a shape on the wire.
type Panel struct {
	ID      string             `json:"id"`
	Title   string             `json:"title"`
	Code    string             `json:"code"`
	Playing bool               `json:"playing"`
	Stale   bool               `json:"stale"`
	Sliders map[string]float64 `json:"sliders,omitempty"`
}

// ---------- control plane ---------- //

type Register struct {
	ClientType string `json:"clientType"`
}

func (Register) Tag() string { return TagRegister }

type Hello struct {
	ClientID  string `json:"clientId"`
	Timestamp int64  `json:"timestamp"`
}

func (Hello) Tag() string { return TagHello }

type RequestFullState struct {
	TargetClientID string `json:"targetClientId,omitempty"`
}

func (RequestFullState) Tag() string { return TagRequestFullState }

type SyncPanels struct {
	Panels []Panel `json:"panels"`
}

func (SyncPanels) Tag() string { return TagSyncPanels }

type Error struct {
	Message string `json:"message"`
}

func (Error) Tag() string { return TagError }

// ---------- remote -> main commands ---------- //

type PanelToggle struct {
	PanelID string `json:"panelId"`
}

func (PanelToggle) Tag() string { return TagPanelToggle }

type PanelPlay struct {
	PanelID string `json:"panelId"`
}

func (PanelPlay) Tag() string { return TagPanelPlay }

type PanelPause struct {
	PanelID string `json:"panelId"`
}

func (PanelPause) Tag() string { return TagPanelPause }

type PanelUpdateCode struct {
	PanelID string `json:"panelId"`
	Code    string `json:"code"`
}

func (PanelUpdateCode) Tag() string { return TagPanelUpdateCode }

type StopAll struct{}

func (StopAll) Tag() string { return TagStopAll }

type UpdateAll struct{}

func (UpdateAll) Tag() string { return TagUpdateAll }

type MasterSliderChange struct {
	SliderID string  `json:"sliderId"`
	Value    float64 `json:"value"`
}

func (MasterSliderChange) Tag() string { return TagMasterSliderChange }

type PanelSliderChange struct {
	PanelID  string  `json:"panelId"`
	SliderID string  `json:"sliderId"`
	Value    float64 `json:"value"`
}

func (PanelSliderChange) Tag() string { return TagPanelSliderChange }

// ---------- main -> remote events ---------- //

type PanelCreated struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Code  string `json:"code"`
}

func (PanelCreated) Tag() string { return TagPanelCreated }

type PanelDeleted struct {
	Panel string `json:"panel"`
}

func (PanelDeleted) Tag() string { return TagPanelDeleted }

type PanelRenamed struct {
	ID       string `json:"id"`
	NewTitle string `json:"newTitle"`
}

func (PanelRenamed) Tag() string { return TagPanelRenamed }

type PanelStateChanged struct {
	Panel   string `json:"panel"`
	Playing bool   `json:"playing"`
}

func (PanelStateChanged) Tag() string { return TagPanelStateChanged }

// PanelSliders carries either a full slider map or a single slider update,
// matching the two shapes the main session emits.
type PanelSliders struct {
	PanelID  string             `json:"panelId"`
	Sliders  map[string]float64 `json:"sliders,omitempty"`
	SliderID string             `json:"sliderId,omitempty"`
	Value    float64            `json:"value,omitempty"`
}

func (PanelSliders) Tag() string { return TagPanelSliders }

type MasterSliders struct {
	Sliders map[string]float64 `json:"sliders"`
}

func (MasterSliders) Tag() string { return TagMasterSliders }

type MasterSliderValue struct {
	SliderID string  `json:"sliderId"`
	Value    float64 `json:"value"`
}

func (MasterSliderValue) Tag() string { return TagMasterSliderValue }

type FullState struct {
	Panels []Panel            `json:"panels"`
	Master map[string]float64 `json:"master,omitempty"`
}

func (FullState) Tag() string { return TagFullState }

// StateUpdate is an opaque catch-all event; the relay and the remote forward
// its body without interpreting it.
type StateUpdate struct {
	State json.RawMessage `json:"state,omitempty"`
}

func (StateUpdate) Tag() string { return TagStateUpdate }

type MetronomeStep struct {
	Step int `json:"step"`
}

func (MetronomeStep) Tag() string { return TagMetronomeStep }

// ---------- wire codec ---------- //

// PeekType extracts the type tag from a raw frame without decoding the rest.
// The relay routes on this alone and forwards bodies verbatim.
func PeekType(data []byte) (string, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", fmt.Errorf("invalid frame: %w", err)
	}
	if head.Type == "" {
		return "", fmt.Errorf("invalid frame: missing type field")
	}
	return head.Type, nil
}

// Marshal encodes a frame with its fields flattened at the top level next to
// the type tag: {"type": "panel.toggle", "panelId": "..."}.
func Marshal(f Frame) ([]byte, error) {
	body, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	tag, err := json.Marshal(f.Tag())
	if err != nil {
		return nil, err
	}
	fields["type"] = tag
	return json.Marshal(fields)
}

// Unmarshal decodes a raw frame into its typed variant. Frames with a tag
// this package does not know return ErrUnknownType.
func Unmarshal(data []byte) (Frame, error) {
	tag, err := PeekType(data)
	if err != nil {
		return nil, err
	}

	var f Frame
	switch tag {
	case TagRegister:
		f = &Register{}
	case TagHello:
		f = &Hello{}
	case TagRequestFullState:
		f = &RequestFullState{}
	case TagSyncPanels:
		f = &SyncPanels{}
	case TagError:
		f = &Error{}
	case TagPanelToggle:
		f = &PanelToggle{}
	case TagPanelPlay:
		f = &PanelPlay{}
	case TagPanelPause:
		f = &PanelPause{}
	case TagPanelUpdateCode:
		f = &PanelUpdateCode{}
	case TagStopAll:
		f = &StopAll{}
	case TagUpdateAll:
		f = &UpdateAll{}
	case TagMasterSliderChange:
		f = &MasterSliderChange{}
	case TagPanelSliderChange:
		f = &PanelSliderChange{}
	case TagPanelCreated:
		f = &PanelCreated{}
	case TagPanelDeleted:
		f = &PanelDeleted{}
	case TagPanelRenamed:
		f = &PanelRenamed{}
	case TagPanelStateChanged:
		f = &PanelStateChanged{}
	case TagPanelSliders:
		f = &PanelSliders{}
	case TagMasterSliders:
		f = &MasterSliders{}
	case TagMasterSliderValue:
		f = &MasterSliderValue{}
	case TagFullState:
		f = &FullState{}
	case TagStateUpdate:
		f = &StateUpdate{}
	case TagMetronomeStep:
		f = &MetronomeStep{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, tag)
	}

	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("invalid %s frame: %w", tag, err)
	}
	return f, nil
}
