package spawn

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

var ErrUnknownPattern = errors.New("spawn: unknown pattern")

// Target is the part of a solver an emitter needs.
type Target interface {
	AddParticle(p dynamo.Particle) (dynamo.Handle, error)
	Edit(h dynamo.Handle, fn func(p *dynamo.Particle)) error
	StepDt(dt float64) float64
	WorldSize() r2.Vec
}

type Options struct {
	Pattern      string
	Count        int
	Radius       float64
	RadiusJitter float64
	Elasticity   float64
	Speed        float64
	Angle        float64 // degrees
	Interval     float64
	Origin       r2.Vec
	Velocity     r2.Vec
	Fixed        bool
}

// Emitter adds particles to a target over time.
type Emitter interface {
	// Emit is called once per frame before the update of length dt, with
	// now the simulated time at the start of that frame.
	Emit(t Target, now, dt float64) (int, error)
	Done() bool
	Emitted() int
}

type constructor func(opts Options, rng *rand.Rand) Emitter

var patterns = map[string]constructor{
	"grid":     func(o Options, r *rand.Rand) Emitter { return &burst{base: newBase(o, r), place: gridPlace} },
	"random":   func(o Options, r *rand.Rand) Emitter { return &burst{base: newBase(o, r), place: randomPlace} },
	"ring":     func(o Options, r *rand.Rand) Emitter { return &burst{base: newBase(o, r), place: ringPlace} },
	"single":   func(o Options, r *rand.Rand) Emitter { return &burst{base: newBase(o, r), place: singlePlace} },
	"fountain": func(o Options, r *rand.Rand) Emitter { return &Fountain{base: newBase(o, r)} },
}

// New builds the emitter for opts.Pattern. rng may be shared with nothing
// else; emitters are not safe for concurrent use.
func New(opts Options, rng *rand.Rand) (Emitter, error) {
	ctor, ok := patterns[opts.Pattern]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownPattern, opts.Pattern, Patterns())
	}
	if opts.Pattern == "single" && opts.Count != 1 {
		opts.Count = 1
	}
	return ctor(opts, rng), nil
}

func Patterns() []string {
	names := make([]string, 0, len(patterns))
	for n := range patterns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Rainbow returns the i-th of n colors evenly spaced around the hue circle.
func Rainbow(i, n int) dynamo.Color {
	if n <= 0 {
		n = 1
	}
	hue := 360 * float64(i%n) / float64(n)
	c := colorful.Hsv(hue, 0.75, 1)
	return dynamo.Color{R: c.R, G: c.G, B: c.B}
}

// Hex renders a particle color as #rrggbb.
func Hex(c dynamo.Color) string {
	return colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex()
}

type base struct {
	opts    Options
	rng     *rand.Rand
	emitted int
}

func newBase(opts Options, rng *rand.Rand) base {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return base{opts: opts, rng: rng}
}

func (b *base) Done() bool   { return b.emitted >= b.opts.Count }
func (b *base) Emitted() int { return b.emitted }

func (b *base) radius() float64 {
	r := b.opts.Radius
	if b.opts.RadiusJitter > 0 {
		r += (b.rng.Float64()*2 - 1) * b.opts.RadiusJitter
	}
	return r
}

func (b *base) add(t Target, pos, vel r2.Vec, radius, dt float64) error {
	p := dynamo.NewParticle(pos)
	p.Radius = radius
	p.Elasticity = b.opts.Elasticity
	p.Fixed = b.opts.Fixed
	p.Color = Rainbow(b.emitted, max(b.opts.Count, 1))

	h, err := t.AddParticle(p)
	if err != nil {
		return fmt.Errorf("spawn particle %d: %w", b.emitted, err)
	}
	b.emitted++

	if vel == (r2.Vec{}) {
		return nil
	}
	stepDt := t.StepDt(dt)
	return t.Edit(h, func(p *dynamo.Particle) { p.SetVelocity(vel, stepDt) })
}

// placement returns position, velocity and radius for particle i of n.
type placement func(b *base, world r2.Vec, i, n int) (pos, vel r2.Vec, radius float64)

// burst emits every particle on the first call.
type burst struct {
	base
	place placement
}

func (e *burst) Emit(t Target, _, dt float64) (int, error) {
	if e.Done() {
		return 0, nil
	}
	world := t.WorldSize()
	start := e.emitted
	for i := start; i < e.opts.Count; i++ {
		pos, vel, r := e.place(&e.base, world, i, e.opts.Count)
		if err := e.add(t, pos, vel, r, dt); err != nil {
			return e.emitted - start, err
		}
	}
	return e.emitted - start, nil
}

func gridPlace(b *base, _ r2.Vec, i, n int) (r2.Vec, r2.Vec, float64) {
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	spacing := 2*(b.opts.Radius+b.opts.RadiusJitter) + 1
	offset := spacing * float64(cols-1) / 2

	row, col := i/cols, i%cols
	pos := r2.Vec{
		X: b.opts.Origin.X + float64(col)*spacing - offset,
		Y: b.opts.Origin.Y + float64(row)*spacing - offset,
	}
	return pos, b.opts.Velocity, b.radius()
}

func randomPlace(b *base, world r2.Vec, _, _ int) (r2.Vec, r2.Vec, float64) {
	r := b.radius()
	halfX, halfY := world.X/2-r, world.Y/2-r
	pos := r2.Vec{
		X: (b.rng.Float64()*2 - 1) * math.Max(halfX, 0),
		Y: (b.rng.Float64()*2 - 1) * math.Max(halfY, 0),
	}
	theta := b.rng.Float64() * 2 * math.Pi
	speed := b.rng.Float64() * b.opts.Speed
	return pos, r2.Vec{X: speed * math.Cos(theta), Y: speed * math.Sin(theta)}, r
}

func ringPlace(b *base, world r2.Vec, i, n int) (r2.Vec, r2.Vec, float64) {
	ringR := 0.35 * math.Min(world.X, world.Y)
	theta := 2 * math.Pi * float64(i) / float64(n)
	dir := r2.Vec{X: math.Cos(theta), Y: math.Sin(theta)}
	pos := r2.Add(b.opts.Origin, r2.Scale(ringR, dir))
	tangent := r2.Vec{X: -dir.Y, Y: dir.X}
	return pos, r2.Scale(b.opts.Speed, tangent), b.radius()
}

func singlePlace(b *base, _ r2.Vec, _, _ int) (r2.Vec, r2.Vec, float64) {
	return b.opts.Origin, b.opts.Velocity, b.opts.Radius
}

// Fountain emits one particle per Interval of simulated time. The launch
// angle sways sinusoidally within 30 degrees of Angle.
type Fountain struct {
	base
	next float64
}

const fountainSway = 30.0

func (f *Fountain) Emit(t Target, now, dt float64) (int, error) {
	n := 0
	for !f.Done() && f.next < now+dt {
		if f.opts.Interval <= 0 && n > 0 {
			break
		}
		angle := (f.opts.Angle + fountainSway*math.Sin(float64(f.emitted)*0.1)) * math.Pi / 180
		vel := r2.Vec{X: f.opts.Speed * math.Cos(angle), Y: f.opts.Speed * math.Sin(angle)}
		if err := f.add(t, f.opts.Origin, vel, f.radius(), dt); err != nil {
			return n, err
		}
		n++
		f.next += f.opts.Interval
	}
	return n, nil
}

type PegOptions struct {
	Rows, Cols int
	Spacing    float64
	Radius     float64
	Origin     r2.Vec
}

// Pegs adds a staggered lattice of fixed particles centred on Origin and
// returns their handles.
func Pegs(t Target, opts PegOptions) ([]dynamo.Handle, error) {
	handles := make([]dynamo.Handle, 0, opts.Rows*opts.Cols)
	width := opts.Spacing * float64(opts.Cols-1)
	height := opts.Spacing * float64(opts.Rows-1)

	for row := 0; row < opts.Rows; row++ {
		stagger := 0.0
		if row%2 == 1 {
			stagger = opts.Spacing / 2
		}
		for col := 0; col < opts.Cols; col++ {
			p := dynamo.NewParticle(r2.Vec{
				X: opts.Origin.X + float64(col)*opts.Spacing - width/2 + stagger,
				Y: opts.Origin.Y + height/2 - float64(row)*opts.Spacing,
			})
			p.Radius = opts.Radius
			p.Fixed = true
			p.Color = dynamo.Color{R: 0.6, G: 0.6, B: 0.6}

			h, err := t.AddParticle(p)
			if err != nil {
				return handles, fmt.Errorf("peg %d,%d: %w", row, col, err)
			}
			handles = append(handles, h)
		}
	}
	return handles, nil
}
