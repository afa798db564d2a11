package director

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/stagecraft/internal/config"
	"github.com/l1jgo/stagecraft/internal/core/ecs"
	"github.com/l1jgo/stagecraft/internal/core/event"
	"github.com/l1jgo/stagecraft/internal/core/system"
)

// Options configure a Director.
type Options struct {
	Config    config.Director
	Scheduler FrameScheduler // nil disables automatic stepping
	Log       *zap.Logger

	// BeforeUpdate and AfterUpdate bracket every Update call.
	BeforeUpdate func(dt time.Duration)
	AfterUpdate  func(dt time.Duration)
}

// Director owns the entity, system and event managers, the active mode and
// the frame clock.
type Director struct {
	cfg   config.Director
	log   *zap.Logger
	sched FrameScheduler

	entities *ecs.EntityManager
	systems  *system.Manager
	events   *event.Manager
	mode     Mode

	beforeUpdate func(time.Duration)
	afterUpdate  func(time.Duration)

	fixedStep    time.Duration // zero for variable stepping
	lastFrame    time.Duration
	hasLastFrame bool
	leftover     time.Duration
	frame        FrameHandle
	running      bool
	destroyed    bool
}

func New(opts Options) *Director {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	cfg := opts.Config
	if cfg.FrameInterval.Duration <= 0 {
		cfg.FrameInterval.Duration = time.Second / 60
	}
	events := event.NewManager()
	entities := ecs.NewEntityManager(events)
	d := &Director{
		cfg:          cfg,
		log:          log,
		sched:        opts.Scheduler,
		events:       events,
		entities:     entities,
		systems:      system.NewManager(entities, events, cfg),
		beforeUpdate: opts.BeforeUpdate,
		afterUpdate:  opts.AfterUpdate,
	}
	if cfg.FixedStep {
		d.fixedStep = cfg.Step.Duration
	}
	return d
}

func (d *Director) Entities() *ecs.EntityManager { return d.entities }
func (d *Director) Systems() *system.Manager     { return d.systems }
func (d *Director) Events() *event.Manager       { return d.events }
func (d *Director) Config() config.Director      { return d.cfg }
func (d *Director) Log() *zap.Logger             { return d.log }

// Mode returns the active mode, or nil when stopped.
func (d *Director) Mode() Mode { return d.mode }

// Started reports whether a mode is active.
func (d *Director) Started() bool { return d.mode != nil }

// Running reports whether updates are flowing. Stop clears it, which also
// ends a fixed-step catch-up loop in progress.
func (d *Director) Running() bool { return d.running }

// SetFixedStep switches to fixed stepping of size step; zero or negative
// switches back to variable stepping.
func (d *Director) SetFixedStep(step time.Duration) {
	if step <= 0 {
		d.fixedStep = 0
		return
	}
	d.fixedStep = step
	d.leftover = 0
}

// FixedStep returns the fixed update size, zero when stepping is variable.
func (d *Director) FixedStep() time.Duration { return d.fixedStep }

// Start stops any active mode, then activates a mode built by factory (a
// BaseMode when factory is nil). With updates the clock is reset and the
// first frame is scheduled.
func (d *Director) Start(factory ModeFactory, withUpdates bool) {
	if d.destroyed {
		return
	}
	if d.mode != nil {
		d.Stop()
	}
	var m Mode
	if factory != nil {
		m = factory()
	}
	if m == nil {
		m = &BaseMode{}
	}
	d.mode = m
	d.events.RegisterContext(m)
	m.Configure(d)
	m.Start()
	d.systems.Start()
	d.log.Debug("director started", zap.Bool("updates", withUpdates), zap.Duration("fixed_step", d.fixedStep))

	if withUpdates && d.mode == m {
		d.leftover = 0
		d.hasLastFrame = false
		d.running = true
		d.schedule()
	}
}

// Stop tears the active mode down and cancels the pending frame.
func (d *Director) Stop() {
	d.running = false
	d.cancelFrame()
	m := d.mode
	if m == nil {
		return
	}
	d.mode = nil
	m.Stop()
	d.systems.Stop()
	d.events.UnregisterContext(m)
	m.Destroy()
	d.log.Debug("director stopped")
}

// Step advances the clock to ts: one variable update, or as many fixed
// updates as the accumulated time allows, then exactly one render.
func (d *Director) Step(ts time.Duration) {
	if d.destroyed {
		return
	}
	dt := d.nominalStep()
	if d.hasLastFrame {
		dt = ts - d.lastFrame
	}
	if dt < 0 {
		dt = 0
	}
	d.lastFrame = ts
	d.hasLastFrame = true

	if d.fixedStep > 0 {
		d.catchUp(dt)
	} else {
		d.Update(dt)
	}
	d.Render()

	if d.running && d.mode != nil {
		d.cancelFrame()
		d.schedule()
	}
}

func (d *Director) catchUp(dt time.Duration) {
	step := d.fixedStep
	d.leftover += dt
	n := 0
	for d.leftover >= step {
		d.leftover -= step
		d.Update(step)
		n++
		if !d.running || d.destroyed {
			return
		}
		if d.cfg.MaxCatchUp > 0 && n >= d.cfg.MaxCatchUp && d.leftover >= step {
			dropped := d.leftover - d.leftover%step
			d.leftover %= step
			d.log.Warn("fixed-step catch-up capped",
				zap.Int("updates", n),
				zap.Duration("dropped", dropped),
			)
			return
		}
	}
}

// Update runs one simulation tick: the mode first, then every system.
func (d *Director) Update(dt time.Duration) {
	if d.destroyed {
		return
	}
	if d.beforeUpdate != nil {
		d.beforeUpdate(dt)
	}
	d.running = true
	if d.mode != nil {
		d.mode.Update(dt)
	}
	d.systems.Update(dt)
	if d.afterUpdate != nil {
		d.afterUpdate(dt)
	}
}

// Render runs the systems' render pass.
func (d *Director) Render() {
	if d.destroyed {
		return
	}
	d.systems.Render()
}

// Destroy stops the director and releases its managers. The director is
// unusable afterwards.
func (d *Director) Destroy() {
	if d.destroyed {
		return
	}
	d.Stop()
	d.systems.Destroy()
	d.entities.Destroy()
	d.events.UnregisterAll()
	d.destroyed = true
	d.sched = nil
	d.log.Debug("director destroyed")
}

func (d *Director) nominalStep() time.Duration {
	if d.fixedStep > 0 {
		return d.fixedStep
	}
	return d.cfg.FrameInterval.Duration
}

func (d *Director) schedule() {
	if d.sched == nil {
		return
	}
	var h FrameHandle
	h = d.sched.RequestFrame(func(ts time.Duration) {
		if h == 0 || d.frame != h {
			return
		}
		d.frame = 0
		d.Step(ts)
	})
	d.frame = h
}

func (d *Director) cancelFrame() {
	if d.frame == 0 {
		return
	}
	if d.sched != nil {
		d.sched.CancelFrame(d.frame)
	}
	d.frame = 0
}
