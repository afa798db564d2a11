package director

import "time"

// Mode drives the simulation during one program phase. Modes that implement
// event.Listener are subscribed while active.
type Mode interface {
	Configure(d *Director)
	Start()
	Stop()
	Update(dt time.Duration)
	Destroy()
}

// ModeFactory builds a fresh mode for Director.Start.
type ModeFactory func() Mode

// BaseMode provides no-op hooks. Modes overriding Configure should call
// BaseMode.Configure to keep Director() working.
type BaseMode struct {
	director *Director
}

func (m *BaseMode) Configure(d *Director)   { m.director = d }
func (m *BaseMode) Start()                  {}
func (m *BaseMode) Stop()                   {}
func (m *BaseMode) Update(dt time.Duration) {}
func (m *BaseMode) Destroy()                { m.director = nil }

// Director returns the director running the mode.
func (m *BaseMode) Director() *Director { return m.director }
