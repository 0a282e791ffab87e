package panelstore

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/padlink/padlink/bus"
	"github.com/padlink/padlink/client"
	"github.com/padlink/padlink/proto"
)

// Store is the authoritative panel collection held by a main session. Every
// mutation is announced on the local bus as a domain event, which is how the
// change reaches connected remotes; the store itself knows nothing about the
// wire. It also answers the command topics so remote-issued commands mutate
// it and re-emerge as events, closing the loop.
type Store struct {
	bus *bus.Bus

	mu     sync.RWMutex
	order  []string
	panels map[string]*proto.Panel
	master map[string]float64
	lastID int64
}

func New(b *bus.Bus) *Store {
	s := &Store{
		bus:    b,
		panels: make(map[string]*proto.Panel),
		master: make(map[string]float64),
	}
	s.subscribeCommands()
	return s
}

func (s *Store) subscribeCommands() {
	s.bus.Subscribe(client.TopicCommandToggle, func(payload any) {
		if c, ok := payload.(client.PanelCommand); ok {
			s.Toggle(c.PanelID)
		}
	})
	s.bus.Subscribe(client.TopicCommandPlay, func(payload any) {
		if c, ok := payload.(client.PanelCommand); ok {
			s.SetPlaying(c.PanelID, true)
		}
	})
	s.bus.Subscribe(client.TopicCommandPause, func(payload any) {
		if c, ok := payload.(client.PanelCommand); ok {
			s.SetPlaying(c.PanelID, false)
		}
	})
	s.bus.Subscribe(client.TopicCommandUpdateCode, func(payload any) {
		if c, ok := payload.(client.CodeUpdateCommand); ok {
			s.UpdateCode(c.PanelID, c.Code)
		}
	})
	s.bus.Subscribe(client.TopicCommandStopAll, func(any) {
		s.StopAll()
	})
	s.bus.Subscribe(client.TopicCommandMasterSlider, func(payload any) {
		if c, ok := payload.(client.SliderCommand); ok {
			s.SetMasterSlider(c.SliderID, c.Value)
		}
	})
	s.bus.Subscribe(client.TopicCommandPanelSlider, func(payload any) {
		if c, ok := payload.(client.PanelSliderCommand); ok {
			s.SetSlider(c.PanelID, c.SliderID, c.Value)
		}
	})
	s.bus.Subscribe(client.TopicBulkReplace, func(payload any) {
		if panels, ok := payload.([]proto.Panel); ok {
			s.Replace(panels)
		}
	})
}

// Create adds a panel and announces it. Panel ids carry their creation time
// in milliseconds, matching what the editor produces.
func (s *Store) Create(title, code string) proto.Panel {
	s.mu.Lock()
	ms := time.Now().UnixMilli()
	if ms <= s.lastID {
		ms = s.lastID + 1 // two creates inside one millisecond
	}
	s.lastID = ms

	p := proto.Panel{
		ID:    fmt.Sprintf("panel-%d", ms),
		Title: title,
		Code:  code,
	}
	s.panels[p.ID] = &p
	s.order = append(s.order, p.ID)
	s.mu.Unlock()

	slog.Info("Panel created", "id", p.ID, "title", p.Title)
	s.bus.Publish(client.TopicPanelCreated, client.PanelCreated{ID: p.ID, Title: p.Title, Code: p.Code})
	return p
}

func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	if _, ok := s.panels[id]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.panels, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	slog.Info("Panel deleted", "id", id)
	s.bus.Publish(client.TopicPanelDeleted, client.PanelDeleted{ID: id})
	return true
}

func (s *Store) Rename(id, title string) bool {
	s.mu.Lock()
	p, ok := s.panels[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	p.Title = title
	s.mu.Unlock()

	s.bus.Publish(client.TopicPanelRenamed, client.PanelRenamed{ID: id, Title: title})
	return true
}

func (s *Store) SetPlaying(id string, playing bool) bool {
	s.mu.Lock()
	p, ok := s.panels[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	p.Playing = playing
	s.mu.Unlock()

	s.bus.Publish(client.TopicPanelState, client.PanelStateChanged{ID: id, Playing: playing})
	return true
}

func (s *Store) Toggle(id string) bool {
	s.mu.Lock()
	p, ok := s.panels[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	p.Playing = !p.Playing
	playing := p.Playing
	s.mu.Unlock()

	s.bus.Publish(client.TopicPanelState, client.PanelStateChanged{ID: id, Playing: playing})
	return true
}

func (s *Store) UpdateCode(id, code string) bool {
	s.mu.Lock()
	p, ok := s.panels[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	p.Code = code
	p.Stale = true
	s.mu.Unlock()

	// Code edits from a remote mark the panel stale until the engine picks
	// the new pattern up; remotes learn about it on the next snapshot.
	return true
}

func (s *Store) StopAll() {
	s.mu.Lock()
	stopped := make([]string, 0, len(s.order))
	for _, id := range s.order {
		if p := s.panels[id]; p.Playing {
			p.Playing = false
			stopped = append(stopped, id)
		}
	}
	s.mu.Unlock()

	for _, id := range stopped {
		s.bus.Publish(client.TopicPanelState, client.PanelStateChanged{ID: id, Playing: false})
	}
}

func (s *Store) SetSlider(id, sliderID string, value float64) bool {
	s.mu.Lock()
	p, ok := s.panels[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if p.Sliders == nil {
		p.Sliders = make(map[string]float64)
	}
	p.Sliders[sliderID] = value
	s.mu.Unlock()

	s.bus.Publish(client.TopicPanelSlider, client.PanelSliderMoved{PanelID: id, SliderID: sliderID, Value: value})
	return true
}

func (s *Store) SetMasterSlider(sliderID string, value float64) {
	s.mu.Lock()
	s.master[sliderID] = value
	s.mu.Unlock()

	s.bus.Publish(client.TopicMasterSlider, client.MasterSliderMoved{SliderID: sliderID, Value: value})
}

// Replace swaps the whole collection, the facade's bulk-sync semantics. No
// per-panel events fire; the caller pushes a fresh snapshot instead.
func (s *Store) Replace(panels []proto.Panel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.panels = make(map[string]*proto.Panel, len(panels))
	s.order = make([]string, 0, len(panels))
	for _, p := range panels {
		p := p
		s.panels[p.ID] = &p
		s.order = append(s.order, p.ID)
	}
	slog.Info("Panel collection replaced", "panels", len(panels))
}

func (s *Store) Get(id string) (proto.Panel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.panels[id]; ok {
		return *p, true
	}
	return proto.Panel{}, false
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Snapshot implements client.StateProvider: the full ordered panel list plus
// master control state, ready to serialize into full_state.
func (s *Store) Snapshot() ([]proto.Panel, map[string]float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	panels := make([]proto.Panel, 0, len(s.order))
	for _, id := range s.order {
		panels = append(panels, *s.panels[id])
	}
	master := make(map[string]float64, len(s.master))
	for k, v := range s.master {
		master[k] = v
	}
	return panels, master
}
