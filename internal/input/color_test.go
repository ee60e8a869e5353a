package input

import (
	"reflect"
	"testing"
	"time"

	"github.com/CoryCharlton/emilys-neopixel/internal/hw"
)

type rgb struct{ r, g, b uint16 }

type colorFixture struct {
	red, green, blue       *hw.FakeMagnitude
	redIn, greenIn, blueIn *AnalogInput
	clk                    *fakeClock
	color                  *ColorInput
	rec                    *recorder[rgb]
}

// newColorFixture builds a ColorInput whose channels never tick on their own;
// tests drive them through handleInput.
func newColorFixture(t *testing.T) *colorFixture {
	t.Helper()
	f := &colorFixture{
		red:   hw.NewFakeMagnitude(10),
		green: hw.NewFakeMagnitude(20),
		blue:  hw.NewFakeMagnitude(30),
		clk:   newFakeClock(),
		rec:   newRecorder[rgb](),
	}
	opts := []Option{WithClock(f.clk.Now), WithInterval(time.Hour), WithDebounce(10 * time.Millisecond)}

	var err error
	if f.redIn, err = NewAnalogInput(f.red, opts...); err != nil {
		t.Fatalf("red: %v", err)
	}
	if f.greenIn, err = NewAnalogInput(f.green, opts...); err != nil {
		t.Fatalf("green: %v", err)
	}
	if f.blueIn, err = NewAnalogInput(f.blue, opts...); err != nil {
		t.Fatalf("blue: %v", err)
	}
	f.color = NewColorInput(f.redIn, f.greenIn, f.blueIn)
	f.color.OnEvent(func(r, g, b uint16) { f.rec.record(rgb{r, g, b}) })
	return f
}

// settle changes one channel and ticks it until the value commits.
func (f *colorFixture) settle(in *AnalogInput, r *hw.FakeMagnitude, v uint16) {
	r.Set(v)
	start := f.clk.Now()
	in.handleInput()
	f.clk.Set(start.Add(20 * time.Millisecond))
	in.handleInput()
}

func TestColorInitialValues(t *testing.T) {
	f := newColorFixture(t)
	if f.color.Red() != 10 || f.color.Green() != 20 || f.color.Blue() != 30 {
		t.Errorf("unexpected initial values %d/%d/%d", f.color.Red(), f.color.Green(), f.color.Blue())
	}
}

func TestColorFanIn(t *testing.T) {
	f := newColorFixture(t)
	if err := f.color.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer f.color.End()

	f.settle(f.greenIn, f.green, 200)
	f.settle(f.redIn, f.red, 100)

	want := []rgb{{10, 200, 30}, {100, 200, 30}}
	if got := f.rec.all(); !reflect.DeepEqual(got, want) {
		t.Errorf("events: got %v, want %v", got, want)
	}
}

func TestColorNoEventsBeforeBegin(t *testing.T) {
	f := newColorFixture(t)

	f.settle(f.blueIn, f.blue, 250)

	if got := f.rec.all(); len(got) != 0 {
		t.Errorf("expected no events before Begin, got %v", got)
	}
	if f.color.Blue() != 250 {
		t.Errorf("channel should still debounce, got %d", f.color.Blue())
	}
}

func TestColorBeginEndIdempotent(t *testing.T) {
	f := newColorFixture(t)

	if err := f.color.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := f.color.Begin(); err != nil {
		t.Fatalf("second Begin: %v", err)
	}
	for name, in := range map[string]*AnalogInput{"red": f.redIn, "green": f.greenIn, "blue": f.blueIn} {
		if !in.task.running() {
			t.Errorf("%s channel not running after Begin", name)
		}
	}

	f.color.End()
	f.color.End()
	for name, in := range map[string]*AnalogInput{"red": f.redIn, "green": f.greenIn, "blue": f.blueIn} {
		if in.task.running() {
			t.Errorf("%s channel still running after End", name)
		}
	}
}

// ramp scripts a channel to hold each value for three samples, so every
// value commits with a zero debounce.
func ramp(base uint16) (samples []uint16, values map[uint16]bool) {
	values = map[uint16]bool{}
	for i := uint16(1); i <= 20; i++ {
		v := base + i*10
		values[v] = true
		samples = append(samples, v, v, v)
	}
	return samples, values
}

func TestColorConcurrentChannels(t *testing.T) {
	redSamples, redValues := ramp(1000)
	greenSamples, greenValues := ramp(2000)
	blueSamples, blueValues := ramp(3000)
	redValues[1], greenValues[2], blueValues[3] = true, true, true

	red := hw.NewFakeMagnitude(append([]uint16{1}, redSamples...)...)
	green := hw.NewFakeMagnitude(append([]uint16{2}, greenSamples...)...)
	blue := hw.NewFakeMagnitude(append([]uint16{3}, blueSamples...)...)

	opts := []Option{WithInterval(time.Millisecond), WithDebounce(0)}
	redIn, err := NewAnalogInput(red, opts...)
	if err != nil {
		t.Fatalf("red: %v", err)
	}
	greenIn, err := NewAnalogInput(green, opts...)
	if err != nil {
		t.Fatalf("green: %v", err)
	}
	blueIn, err := NewAnalogInput(blue, opts...)
	if err != nil {
		t.Fatalf("blue: %v", err)
	}
	c := NewColorInput(redIn, greenIn, blueIn)
	rec := newRecorder[rgb]()
	c.OnEvent(func(r, g, b uint16) { rec.record(rgb{r, g, b}) })

	if err := c.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	final := rgb{1200, 2200, 3200}
	deadline := time.Now().Add(5 * time.Second)
	for (rgb{c.Red(), c.Green(), c.Blue()}) != final {
		if time.Now().After(deadline) {
			c.End()
			t.Fatalf("channels did not settle: %d/%d/%d", c.Red(), c.Green(), c.Blue())
		}
		time.Sleep(time.Millisecond)
	}
	c.End()

	events := rec.all()
	if len(events) == 0 {
		t.Fatal("expected color events")
	}
	var prev rgb
	for i, e := range events {
		if !redValues[e.r] || !greenValues[e.g] || !blueValues[e.b] {
			t.Fatalf("event %d %v mixes in a value no channel held", i, e)
		}
		if e.r < prev.r || e.g < prev.g || e.b < prev.b {
			t.Errorf("event %d %v goes back from %v", i, e, prev)
		}
		prev = e
	}
	if last := events[len(events)-1]; last != final {
		t.Errorf("last event: got %v, want %v", last, final)
	}
}
