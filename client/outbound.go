package client

import (
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/padlink/padlink/bus"
	"github.com/padlink/padlink/proto"
)

// metronomeRate caps how many metronome.step frames a main session forwards.
// The audio engine ticks every cycle; remotes only need a coarse pulse.
const metronomeRate = rate.Limit(4)

// Outbound is the client's only path onto the wire. It registers the client's
// fixed role after every open, installs the domain-event subscriptions
// exactly once, and exposes a Send that never fails loudly and never buffers:
// a frame that cannot go out right now is discarded, because replaying stale
// intents after a reconnect is worse than losing them.
type Outbound struct {
	role      string
	transport Transport
	bus       *bus.Bus

	subscribeOnce sync.Once
	metroLimit    *rate.Limiter
}

func NewOutbound(role string, t Transport, b *bus.Bus) *Outbound {
	return &Outbound{
		role:       role,
		transport:  t,
		bus:        b,
		metroLimit: rate.NewLimiter(metronomeRate, 1),
	}
}

// HandleOpen runs after every successful (re)connect: re-register the role,
// then wire the bus subscriptions on the first open only, so reconnects do
// not stack duplicate subscriptions.
func (o *Outbound) HandleOpen() {
	o.Send(proto.Register{ClientType: o.role})
	o.subscribeOnce.Do(o.installSubscriptions)
}

// Send serializes a frame and writes it if the socket is open. It reports
// delivery to the socket, nothing more; false means the frame is gone.
func (o *Outbound) Send(f proto.Frame) bool {
	data, err := proto.Marshal(f)
	if err != nil {
		slog.Warn("Failed to marshal outbound frame", "type", f.Tag(), "error", err.Error())
		return false
	}
	if err := o.transport.Send(data); err != nil {
		slog.Debug("Discarding outbound frame, socket not open", "type", f.Tag())
		return false
	}
	return true
}

func (o *Outbound) installSubscriptions() {
	switch o.role {
	case proto.ClientTypeMain:
		o.installMainSubscriptions()
	case proto.ClientTypeRemote:
		o.installRemoteSubscriptions()
	}
}

// installMainSubscriptions translates the main session's domain events 1:1
// into protocol frames. This is the one place domain vocabulary is allowed to
// leak into the wire format.
func (o *Outbound) installMainSubscriptions() {
	o.bus.Subscribe(TopicPanelCreated, func(payload any) {
		if e, ok := payload.(PanelCreated); ok {
			o.Send(proto.PanelCreated{ID: e.ID, Title: e.Title, Code: e.Code})
		}
	})
	o.bus.Subscribe(TopicPanelDeleted, func(payload any) {
		if e, ok := payload.(PanelDeleted); ok {
			o.Send(proto.PanelDeleted{Panel: e.ID})
		}
	})
	o.bus.Subscribe(TopicPanelRenamed, func(payload any) {
		if e, ok := payload.(PanelRenamed); ok {
			o.Send(proto.PanelRenamed{ID: e.ID, NewTitle: e.Title})
		}
	})
	o.bus.Subscribe(TopicPanelState, func(payload any) {
		if e, ok := payload.(PanelStateChanged); ok {
			o.Send(proto.PanelStateChanged{Panel: e.ID, Playing: e.Playing})
		}
	})
	o.bus.Subscribe(TopicPanelSlider, func(payload any) {
		if e, ok := payload.(PanelSliderMoved); ok {
			o.Send(proto.PanelSliders{PanelID: e.PanelID, SliderID: e.SliderID, Value: e.Value})
		}
	})
	o.bus.Subscribe(TopicMasterSliders, func(payload any) {
		if e, ok := payload.(MasterSliderValues); ok {
			o.Send(proto.MasterSliders{Sliders: e.Sliders})
		}
	})
	o.bus.Subscribe(TopicMasterSlider, func(payload any) {
		if e, ok := payload.(MasterSliderMoved); ok {
			o.Send(proto.MasterSliderValue{SliderID: e.SliderID, Value: e.Value})
		}
	})
	o.bus.Subscribe(TopicMetronome, func(payload any) {
		e, ok := payload.(MetronomeTick)
		if !ok {
			return
		}
		// Emitting-side throttle: the heartbeat fires every audio cycle, far
		// faster than remotes can usefully render.
		if !o.metroLimit.Allow() {
			return
		}
		o.Send(proto.MetronomeStep{Step: e.Step})
	})
}

// installRemoteSubscriptions translates remote UI commands into command
// frames for the main session.
func (o *Outbound) installRemoteSubscriptions() {
	o.bus.Subscribe(TopicCommandToggle, func(payload any) {
		if c, ok := payload.(PanelCommand); ok {
			o.Send(proto.PanelToggle{PanelID: c.PanelID})
		}
	})
	o.bus.Subscribe(TopicCommandPlay, func(payload any) {
		if c, ok := payload.(PanelCommand); ok {
			o.Send(proto.PanelPlay{PanelID: c.PanelID})
		}
	})
	o.bus.Subscribe(TopicCommandPause, func(payload any) {
		if c, ok := payload.(PanelCommand); ok {
			o.Send(proto.PanelPause{PanelID: c.PanelID})
		}
	})
	o.bus.Subscribe(TopicCommandUpdateCode, func(payload any) {
		if c, ok := payload.(CodeUpdateCommand); ok {
			o.Send(proto.PanelUpdateCode{PanelID: c.PanelID, Code: c.Code})
		}
	})
	o.bus.Subscribe(TopicCommandStopAll, func(any) {
		o.Send(proto.StopAll{})
	})
	o.bus.Subscribe(TopicCommandUpdateAll, func(any) {
		o.Send(proto.UpdateAll{})
	})
	o.bus.Subscribe(TopicCommandMasterSlider, func(payload any) {
		if c, ok := payload.(SliderCommand); ok {
			o.Send(proto.MasterSliderChange{SliderID: c.SliderID, Value: c.Value})
		}
	})
	o.bus.Subscribe(TopicCommandPanelSlider, func(payload any) {
		if c, ok := payload.(PanelSliderCommand); ok {
			o.Send(proto.PanelSliderChange{PanelID: c.PanelID, SliderID: c.SliderID, Value: c.Value})
		}
	})
}
