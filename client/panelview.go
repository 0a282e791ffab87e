package client

import (
	"sync"

	"github.com/padlink/padlink/proto"
)

// PanelView is the remote's mirror of the main session's panel list. It holds
// no authority: partial events nudge it along, and a full_state snapshot
// rebuilds it outright. Rebuild is destructive and idempotent, so it is safe
// on every reconnect and safe to run twice with the same snapshot.
type PanelView struct {
	mu     sync.RWMutex
	order  []string
	panels map[string]*proto.Panel
}

func NewPanelView() *PanelView {
	return &PanelView{panels: make(map[string]*proto.Panel)}
}

// Rebuild replaces the view with the snapshot: panels absent from the
// snapshot are removed, new ones created, existing ones updated in place.
// The snapshot's order becomes the view's order.
func (v *PanelView) Rebuild(snapshot []proto.Panel) {
	v.mu.Lock()
	defer v.mu.Unlock()

	keep := make(map[string]struct{}, len(snapshot))
	for _, p := range snapshot {
		keep[p.ID] = struct{}{}
	}
	for id := range v.panels {
		if _, ok := keep[id]; !ok {
			delete(v.panels, id)
		}
	}

	order := make([]string, 0, len(snapshot))
	for _, p := range snapshot {
		p := p
		if existing, ok := v.panels[p.ID]; ok {
			*existing = p
		} else {
			v.panels[p.ID] = &p
		}
		order = append(order, p.ID)
	}
	v.order = order
}

func (v *PanelView) Add(p proto.Panel) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.panels[p.ID]; ok {
		*v.panels[p.ID] = p
		return
	}
	v.panels[p.ID] = &p
	v.order = append(v.order, p.ID)
}

func (v *PanelView) Remove(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.panels[id]; !ok {
		return
	}
	delete(v.panels, id)
	for i, existing := range v.order {
		if existing == id {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
}

func (v *PanelView) Rename(id, title string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if p, ok := v.panels[id]; ok {
		p.Title = title
	}
}

func (v *PanelView) SetPlaying(id string, playing bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if p, ok := v.panels[id]; ok {
		p.Playing = playing
	}
}

func (v *PanelView) SetCode(id, code string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if p, ok := v.panels[id]; ok {
		p.Code = code
	}
}

func (v *PanelView) SetSlider(id, sliderID string, value float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	p, ok := v.panels[id]
	if !ok {
		return
	}
	if p.Sliders == nil {
		p.Sliders = make(map[string]float64)
	}
	p.Sliders[sliderID] = value
}

func (v *PanelView) SetSliders(id string, sliders map[string]float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if p, ok := v.panels[id]; ok {
		p.Sliders = sliders
	}
}

// Panels returns the rendered list in display order.
func (v *PanelView) Panels() []proto.Panel {
	v.mu.RLock()
	defer v.mu.RUnlock()

	panels := make([]proto.Panel, 0, len(v.order))
	for _, id := range v.order {
		if p, ok := v.panels[id]; ok {
			panels = append(panels, *p)
		}
	}
	return panels
}

func (v *PanelView) Get(id string) (proto.Panel, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if p, ok := v.panels[id]; ok {
		return *p, true
	}
	return proto.Panel{}, false
}

func (v *PanelView) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.order)
}
