package client

// Local bus topics. Wire tags never appear on the bus: the outbound adapter
// translates domain events into frames and the inbound dispatcher translates
// frames back into these topics, so UI code never learns the wire format.

// Domain events published by the panel module on a main session. The main
// outbound adapter turns each one into a protocol frame.
const (
	TopicPanelCreated  = "panel/created"     // PanelCreated
	TopicPanelDeleted  = "panel/deleted"     // PanelDeleted
	TopicPanelRenamed  = "panel/renamed"     // PanelRenamed
	TopicPanelState    = "panel/state"       // PanelStateChanged
	TopicPanelSlider   = "panel/slider"      // PanelSliderMoved
	TopicMasterSliders = "master/sliders"    // MasterSliderValues
	TopicMasterSlider  = "master/slider"     // MasterSliderMoved
	TopicMetronome     = "clock/step"        // MetronomeTick
	TopicBulkReplace   = "panel/bulkReplace" // []proto.Panel, facade sync path
)

// Command events published by the remote UI. The remote outbound adapter
// turns each one into a command frame for the main session.
const (
	TopicCommandToggle       = "command/panel/toggle"  // PanelCommand
	TopicCommandPlay         = "command/panel/play"    // PanelCommand
	TopicCommandPause        = "command/panel/pause"   // PanelCommand
	TopicCommandUpdateCode   = "command/panel/code"    // CodeUpdateCommand
	TopicCommandStopAll      = "command/stopAll"       // nil payload
	TopicCommandUpdateAll    = "command/updateAll"     // nil payload
	TopicCommandMasterSlider = "command/master/slider" // SliderCommand
	TopicCommandPanelSlider  = "command/panel/slider"  // PanelSliderCommand
)

// View topics published by the remote inbound dispatcher after it has applied
// an update, so the UI can re-render. On a main session the dispatcher
// republishes arriving commands under the command topics above instead.
const (
	TopicViewPanelAdded   = "view/panel/added"   // PanelCreated
	TopicViewPanelRemoved = "view/panel/removed" // PanelDeleted
	TopicViewPanelChanged = "view/panel/changed" // panel id (string)
	TopicViewSynced       = "view/synced"        // panel count (int)
	TopicViewClock        = "view/clock"         // MetronomeTick
	TopicViewMaster       = "view/master"        // MasterSliderValues
	TopicViewState        = "view/state"         // opaque json.RawMessage
	TopicViewConnection   = "view/connection"    // connected (bool)
)

type PanelCreated struct {
	ID    string
	Title string
	Code  string
}

type PanelDeleted struct {
	ID string
}

type PanelRenamed struct {
	ID    string
	Title string
}

type PanelStateChanged struct {
	ID      string
	Playing bool
}

type PanelSliderMoved struct {
	PanelID  string
	SliderID string
	Value    float64
}

type MasterSliderValues struct {
	Sliders map[string]float64
}

type MasterSliderMoved struct {
	SliderID string
	Value    float64
}

type MetronomeTick struct {
	Step int
}

type PanelCommand struct {
	PanelID string
}

type CodeUpdateCommand struct {
	PanelID string
	Code    string
}

type SliderCommand struct {
	SliderID string
	Value    float64
}

type PanelSliderCommand struct {
	PanelID  string
	SliderID string
	Value    float64
}
