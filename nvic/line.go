package nvic

// Line is one interrupt source bound to a Controller, for drivers that only
// ever deal with their own interrupt.
type Line struct {
	c  *Controller
	id IRQ
}

// Line returns the handle for id.
func (c *Controller) Line(id IRQ) Line {
	return Line{c: c, id: id}
}

func (l Line) IRQ() IRQ {
	return l.id
}

func (l Line) Enable() {
	l.c.EnableInterrupt(l.id)
}

func (l Line) Disable() {
	l.c.DisableInterrupt(l.id)
}

func (l Line) SetPriority(p Priority) {
	l.c.SetInterruptPriority(l.id, p)
}

func (l Line) Enabled() bool {
	return l.c.InterruptEnabled(l.id)
}

// Masked disables the line for the duration of fn and restores its previous
// state afterwards. It is the critical section for state shared with the
// line's handler.
func (l Line) Masked(fn func()) {
	was := l.Enabled()
	l.Disable()
	defer func() {
		if was {
			l.Enable()
		}
	}()
	fn()
}
