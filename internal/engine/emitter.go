package engine

// Emitter fires EmitCenterBody at a fixed interval of simulated time. It emits
// once immediately when started.
type Emitter struct {
	Interval float64
	// SkipWhenBusy holds fire while the center cell is occupied.
	SkipWhenBusy bool

	running bool
	elapsed float64
	acc     float64
}

func NewEmitter(interval float64) *Emitter {
	return &Emitter{Interval: interval}
}

func (e *Emitter) Running() bool { return e.running }

// Start arms the emitter and fires the first body.
func (e *Emitter) Start(c *Context) int {
	if e.running {
		return 0
	}
	e.running = true
	e.acc = 0
	return e.fire(c)
}

func (e *Emitter) Stop() { e.running = false }

// Advance accounts for dt seconds and returns how many bodies were emitted.
func (e *Emitter) Advance(c *Context, dt float64) int {
	if !e.running || dt <= 0 || e.Interval <= 0 {
		return 0
	}
	e.elapsed += dt
	e.acc += dt
	n := 0
	for e.acc >= e.Interval {
		e.acc -= e.Interval
		n += e.fire(c)
	}
	return n
}

func (e *Emitter) fire(c *Context) int {
	if e.SkipWhenBusy && !c.IsCenterCellEmpty() {
		return 0
	}
	c.EmitCenterBody(e.elapsed)
	return 1
}
