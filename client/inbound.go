package client

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/padlink/padlink/bus"
	"github.com/padlink/padlink/proto"
)

// StateProvider is the seam to the panel module on a main session: whatever
// owns the authoritative panels answers full-state requests through it.
type StateProvider interface {
	Snapshot() (panels []proto.Panel, master map[string]float64)
}

// Inbound decodes frames off the wire and republishes them as local bus
// events under UI-facing topics. On a main session it also answers full-state
// requests; on a remote it rebuilds the panel view from snapshots. Malformed
// frames are logged and dropped, never raised.
type Inbound struct {
	role     string
	bus      *bus.Bus
	out      *Outbound
	provider StateProvider // main only
	view     *PanelView    // remote only

	mu       sync.Mutex
	clientID string
}

func NewInbound(role string, b *bus.Bus, out *Outbound) *Inbound {
	return &Inbound{role: role, bus: b, out: out}
}

func (d *Inbound) SetProvider(p StateProvider) { d.provider = p }
func (d *Inbound) SetView(v *PanelView)        { d.view = v }

// ClientID returns the id the relay assigned in server.hello, empty before
// the first handshake.
func (d *Inbound) ClientID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clientID
}

// Dispatch decodes and handles one raw inbound frame.
func (d *Inbound) Dispatch(data []byte) {
	f, err := proto.Unmarshal(data)
	if err != nil {
		if errors.Is(err, proto.ErrUnknownType) {
			slog.Warn("Ignoring frame with unknown type", "error", err.Error())
		} else {
			slog.Warn("Dropping malformed frame", "error", err.Error())
		}
		return
	}

	switch f := f.(type) {
	case *proto.Hello:
		d.mu.Lock()
		d.clientID = f.ClientID
		d.mu.Unlock()
		slog.Info("Relay handshake", "clientId", f.ClientID, "role", d.role)

	case *proto.Error:
		slog.Warn("Relay reported an error", "message", f.Message)

	default:
		switch d.role {
		case proto.ClientTypeMain:
			d.dispatchMain(f)
		case proto.ClientTypeRemote:
			d.dispatchRemote(f)
		}
	}
}

// dispatchMain handles frames arriving at the authoritative session: remote
// commands become local command events, and full-state requests are answered
// from the provider.
func (d *Inbound) dispatchMain(f proto.Frame) {
	switch f := f.(type) {
	case *proto.RequestFullState:
		d.sendFullState()

	case *proto.SyncPanels:
		// Legacy facade path: replace local state wholesale, then push the
		// new truth so remotes converge on it.
		d.bus.Publish(TopicBulkReplace, f.Panels)
		d.sendFullState()

	case *proto.PanelToggle:
		d.bus.Publish(TopicCommandToggle, PanelCommand{PanelID: f.PanelID})
	case *proto.PanelPlay:
		d.bus.Publish(TopicCommandPlay, PanelCommand{PanelID: f.PanelID})
	case *proto.PanelPause:
		d.bus.Publish(TopicCommandPause, PanelCommand{PanelID: f.PanelID})
	case *proto.PanelUpdateCode:
		d.bus.Publish(TopicCommandUpdateCode, CodeUpdateCommand{PanelID: f.PanelID, Code: f.Code})
	case *proto.StopAll:
		d.bus.Publish(TopicCommandStopAll, nil)
	case *proto.UpdateAll:
		d.bus.Publish(TopicCommandUpdateAll, nil)
	case *proto.MasterSliderChange:
		d.bus.Publish(TopicCommandMasterSlider, SliderCommand{SliderID: f.SliderID, Value: f.Value})
	case *proto.PanelSliderChange:
		d.bus.Publish(TopicCommandPanelSlider, PanelSliderCommand{PanelID: f.PanelID, SliderID: f.SliderID, Value: f.Value})

	default:
		slog.Warn("Unhandled frame on main session", "type", f.Tag())
	}
}

// dispatchRemote applies events to the mirrored panel view and notifies the
// UI through view topics.
func (d *Inbound) dispatchRemote(f proto.Frame) {
	switch f := f.(type) {
	case *proto.FullState:
		d.rebuild(f.Panels)
		if f.Master != nil {
			d.bus.Publish(TopicViewMaster, MasterSliderValues{Sliders: f.Master})
		}

	case *proto.SyncPanels:
		// Bulk replace from the facade is a snapshot in all but name.
		d.rebuild(f.Panels)

	case *proto.PanelCreated:
		d.view.Add(proto.Panel{ID: f.ID, Title: f.Title, Code: f.Code})
		d.bus.Publish(TopicViewPanelAdded, PanelCreated{ID: f.ID, Title: f.Title, Code: f.Code})

	case *proto.PanelDeleted:
		d.view.Remove(f.Panel)
		d.bus.Publish(TopicViewPanelRemoved, PanelDeleted{ID: f.Panel})

	case *proto.PanelRenamed:
		d.view.Rename(f.ID, f.NewTitle)
		d.bus.Publish(TopicViewPanelChanged, f.ID)

	case *proto.PanelStateChanged:
		d.view.SetPlaying(f.Panel, f.Playing)
		d.bus.Publish(TopicViewPanelChanged, f.Panel)

	case *proto.PanelSliders:
		if f.Sliders != nil {
			d.view.SetSliders(f.PanelID, f.Sliders)
		} else {
			d.view.SetSlider(f.PanelID, f.SliderID, f.Value)
		}
		d.bus.Publish(TopicViewPanelChanged, f.PanelID)

	case *proto.MasterSliders:
		d.bus.Publish(TopicViewMaster, MasterSliderValues{Sliders: f.Sliders})

	case *proto.MasterSliderValue:
		d.bus.Publish(TopicViewMaster, MasterSliderValues{Sliders: map[string]float64{f.SliderID: f.Value}})

	case *proto.StateUpdate:
		d.bus.Publish(TopicViewState, f.State)

	case *proto.MetronomeStep:
		d.bus.Publish(TopicViewClock, MetronomeTick{Step: f.Step})

	default:
		slog.Warn("Unhandled frame on remote session", "type", f.Tag())
	}
}

func (d *Inbound) rebuild(panels []proto.Panel) {
	d.view.Rebuild(panels)
	d.bus.Publish(TopicViewSynced, d.view.Len())
	slog.Info("Panel view rebuilt", "panels", d.view.Len())
}

func (d *Inbound) sendFullState() {
	if d.provider == nil {
		slog.Warn("Full state requested but no state provider is attached")
		return
	}
	panels, master := d.provider.Snapshot()
	d.out.Send(proto.FullState{Panels: panels, Master: master})
	slog.Debug("Answered full state request", "panels", len(panels))
}
