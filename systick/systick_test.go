package systick

import (
	"errors"
	"sync"
	"testing"

	"omibyte.io/tm4c/internal/debug"
	"omibyte.io/tm4c/mmio"
	"omibyte.io/tm4c/regmap"
	"omibyte.io/tm4c/sim"
)

const (
	ctrlEnable = 1 << regmap.SysTickCtrlEnable
	ctrlIntEn  = 1 << regmap.SysTickCtrlIntEn
	ctrlClkSrc = 1 << regmap.SysTickCtrlClkSrc
)

func newTimer(t *testing.T, opts Options) (*Timer, *sim.System, *mmio.Trace) {
	t.Helper()
	s := sim.New(sim.Options{})
	tr := mmio.NewTrace(s)
	tm := New(tr, opts)
	s.Handle(sim.VectorSysTick, tm.InterruptEntry)
	return tm, s, tr
}

func storesTo(tr *mmio.Trace, addr uintptr) []uint32 {
	var out []uint32
	for _, a := range tr.Stores() {
		if a.Addr == addr {
			out = append(out, a.Value)
		}
	}
	return out
}

func equal(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestReload(t *testing.T) {
	tests := []struct {
		name    string
		ms      uint32
		clockHz uint32
		want    uint32
		err     error
	}{
		{"oneMillisecond", 1, 16_000_000, 15999, nil},
		{"tenMilliseconds", 10, 16_000_000, 159999, nil},
		{"longest", 1048, 16_000_000, 16767999, nil},
		{"tooLong", 1049, 16_000_000, 0, ErrReloadRange},
		{"zero", 0, 16_000_000, 0, ErrReloadRange},
		{"slowClock", 1, 1000, 0, ErrReloadRange},
		{"80MHz", 200, 80_000_000, 15999999, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Reload(tc.ms, tc.clockHz)
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected error %v, got %v", tc.err, err)
			}
			if got != tc.want {
				t.Errorf("expected %d, got %d", tc.want, got)
			}
		})
	}

	if MaxDuration(16_000_000) != 1048 {
		t.Errorf("unexpected MaxDuration %d", MaxDuration(16_000_000))
	}
}

func TestInitPeriodicInterrupt(t *testing.T) {
	tm, s, tr := newTimer(t, Options{})
	s.Store32(regmap.SysTickCurrent, 0)
	tr.Reset()

	tm.InitPeriodicInterrupt(1)

	if got := s.Peek(regmap.SysTickReload); got != 15999 {
		t.Fatalf("RELOAD: expected 15999, got %d", got)
	}
	if got := storesTo(tr, regmap.SysTickCurrent); len(got) != 1 {
		t.Fatalf("CURRENT not cleared exactly once: %v", got)
	}
	want := []uint32{0, ctrlIntEn, ctrlIntEn | ctrlClkSrc, ctrlIntEn | ctrlClkSrc | ctrlEnable}
	if got := storesTo(tr, regmap.SysTickCtrl); !equal(got, want) {
		t.Fatalf("CTRL writes: expected %#x, got %#x", want, got)
	}
	if tm.State() != Running {
		t.Errorf("expected running, got %v", tm.State())
	}
}

func TestPeriodicCallback(t *testing.T) {
	tm, s, _ := newTimer(t, Options{})
	var calls int
	tm.RegisterCallback(func() { calls++ })
	tm.InitPeriodicInterrupt(1)

	s.Advance(15999)
	if calls != 0 {
		t.Fatalf("callback ran early")
	}
	s.Advance(1)
	if calls != 1 {
		t.Fatalf("expected 1 call after one period, got %d", calls)
	}
	s.Advance(10 * 16000)
	if calls != 11 {
		t.Fatalf("expected 11 calls, got %d", calls)
	}
}

func TestInterruptEntryCallsOnce(t *testing.T) {
	tm, _, _ := newTimer(t, Options{})
	var calls int
	tm.RegisterCallback(func() { calls++ })

	tm.InterruptEntry()
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}

	var replaced int
	tm.RegisterCallback(func() { replaced++ })
	tm.InterruptEntry()
	if calls != 1 || replaced != 1 {
		t.Fatalf("replacement not honoured: calls=%d replaced=%d", calls, replaced)
	}
}

func TestInterruptEntryWithoutCallback(t *testing.T) {
	if debug.Assertions {
		t.Skip("built with haldebug")
	}
	tm, _, tr := newTimer(t, Options{})
	tm.InterruptEntry()
	tm.RegisterCallback(nil)
	tm.InterruptEntry()

	if n := tm.Slot().Spurious(); n != 2 {
		t.Errorf("expected 2 spurious interrupts, got %d", n)
	}
	if len(tr.Accesses()) != 0 {
		t.Errorf("registers accessed: %v", tr.Accesses())
	}
}

func TestStrict(t *testing.T) {
	tests := []struct {
		name string
		call func(tm *Timer)
		want error
	}{
		{"noCallback", func(tm *Timer) { tm.InterruptEntry() }, ErrNoCallback},
		{"periodicRange", func(tm *Timer) { tm.InitPeriodicInterrupt(0) }, ErrReloadRange},
		{"busyWaitRange", func(tm *Timer) { tm.StartBusyWait(5000) }, ErrReloadRange},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tm, _, tr := newTimer(t, Options{Strict: true})
			defer func() {
				err, _ := recover().(error)
				if !errors.Is(err, tc.want) {
					t.Errorf("expected panic wrapping %v, got %v", tc.want, err)
				}
				if len(tr.Stores()) != 0 {
					t.Errorf("registers written: %v", tr.Stores())
				}
			}()
			tc.call(tm)
		})
	}
}

func TestOutOfRangeDurationIgnored(t *testing.T) {
	if debug.Assertions {
		t.Skip("built with haldebug")
	}
	tm, _, tr := newTimer(t, Options{})
	tm.InitPeriodicInterrupt(0)
	tm.InitPeriodicInterrupt(2000)
	tm.StartBusyWait(0)
	if len(tr.Accesses()) != 0 {
		t.Errorf("registers accessed: %v", tr.Accesses())
	}
}

func TestStartBusyWait(t *testing.T) {
	tm, s, tr := newTimer(t, Options{})
	s.SetAutoAdvance(1000)
	var calls int
	tm.RegisterCallback(func() { calls++ })

	tm.StartBusyWait(1)

	if s.Wraps() != 1 {
		t.Fatalf("expected exactly one expiry, got %d", s.Wraps())
	}
	if calls != 0 {
		t.Fatalf("busy-wait raised %d interrupts", calls)
	}
	want := []uint32{0, ctrlClkSrc, ctrlClkSrc | ctrlEnable, ctrlClkSrc}
	if got := storesTo(tr, regmap.SysTickCtrl); !equal(got, want) {
		t.Fatalf("CTRL writes: expected %#x, got %#x", want, got)
	}
	if got := s.Peek(regmap.SysTickReload); got != 15999 {
		t.Errorf("RELOAD: expected 15999, got %d", got)
	}

	// 16000 cycles at 1000 per poll.
	var polls int
	for _, a := range tr.Accesses() {
		if a.Op == mmio.OpLoad && a.Addr == regmap.SysTickCtrl {
			polls++
		}
	}
	if polls < 16 {
		t.Errorf("returned after %d polls, before the period elapsed", polls)
	}
	if tm.State() != Armed {
		t.Errorf("expected armed after busy-wait, got %v", tm.State())
	}
}

func TestStopStart(t *testing.T) {
	tm, s, tr := newTimer(t, Options{})
	tm.InitPeriodicInterrupt(5)
	s.Advance(1234)

	reload := s.Peek(regmap.SysTickReload)
	current := s.Peek(regmap.SysTickCurrent)
	tr.Reset()

	tm.Stop()
	if tm.State() != Armed {
		t.Fatalf("expected armed after Stop, got %v", tm.State())
	}
	s.Advance(5000)
	if got := s.Peek(regmap.SysTickCurrent); got != current {
		t.Fatalf("counter moved while stopped: %d -> %d", current, got)
	}

	tm.Start()
	if tm.State() != Running {
		t.Fatalf("expected running after Start, got %v", tm.State())
	}

	for _, a := range tr.Stores() {
		if a.Addr != regmap.SysTickCtrl {
			t.Errorf("Stop/Start wrote %s", regmap.Name(a.Addr))
		}
	}
	if got := s.Peek(regmap.SysTickReload); got != reload {
		t.Errorf("RELOAD changed: %d -> %d", reload, got)
	}
	if got := s.Peek(regmap.SysTickCtrl); got != ctrlIntEn|ctrlClkSrc|ctrlEnable {
		t.Errorf("CTRL: unexpected %#x", got)
	}
}

func TestDeInit(t *testing.T) {
	for _, setup := range []func(*Timer){
		func(tm *Timer) {},
		func(tm *Timer) { tm.InitPeriodicInterrupt(1) },
		func(tm *Timer) { tm.InitPeriodicInterrupt(1); tm.Stop() },
	} {
		tm, s, _ := newTimer(t, Options{})
		setup(tm)
		tm.DeInit()
		if got := s.Peek(regmap.SysTickCtrl); got != 0 {
			t.Errorf("CTRL not cleared: %#x", got)
		}
		if tm.State() != Uninitialized {
			t.Errorf("expected uninitialized, got %v", tm.State())
		}
	}
}

func TestSharedSlot(t *testing.T) {
	slot := new(Slot)
	a := New(sim.New(sim.Options{}), Options{Slot: slot, ClockHz: 80_000_000})
	b := New(sim.New(sim.Options{}), Options{Slot: slot})

	var calls int
	a.RegisterCallback(func() { calls++ })
	b.InterruptEntry()

	if calls != 1 || !slot.Registered() {
		t.Errorf("slot not shared, calls=%d", calls)
	}
	if a.ClockHz() != 80_000_000 || b.ClockHz() != DefaultClockHz {
		t.Errorf("unexpected clocks %d, %d", a.ClockHz(), b.ClockHz())
	}
}

func TestRegisterWhileFiring(t *testing.T) {
	var slot Slot
	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				slot.Fire()
			}
		}
	}()

	var mu sync.Mutex
	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		i := i
		slot.Register(func() {
			mu.Lock()
			seen[i] = true
			mu.Unlock()
		})
	}
	close(stop)
	wg.Wait()

	slot.Fire()
	mu.Lock()
	defer mu.Unlock()
	if !seen[999] {
		t.Error("last registered callback not observed")
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{Uninitialized: "uninitialized", Armed: "armed", Running: "running", 9: "State(9)"} {
		if s.String() != want {
			t.Errorf("expected %s, got %s", want, s)
		}
	}
}
