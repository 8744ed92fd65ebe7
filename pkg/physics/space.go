package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// StaticBox is a fixed axis-aligned collider such as the ground slab or a wall.
type StaticBox struct {
	Min, Max mgl64.Vec3
	Friction float64
}

// NewStaticBox builds a StaticBox from a centre and half extents.
func NewStaticBox(center, half mgl64.Vec3, friction float64) StaticBox {
	return StaticBox{Min: center.Sub(half), Max: center.Add(half), Friction: friction}
}

func (s StaticBox) contains(p mgl64.Vec3) bool {
	return p.X() > s.Min.X() && p.X() < s.Max.X() &&
		p.Y() > s.Min.Y() && p.Y() < s.Max.Y() &&
		p.Z() > s.Min.Z() && p.Z() < s.Max.Z()
}

// penetration returns the shallowest exit direction and depth for a point inside the box.
func (s StaticBox) penetration(p mgl64.Vec3) (mgl64.Vec3, float64) {
	best := math.Inf(1)
	var normal mgl64.Vec3
	for axis := 0; axis < 3; axis++ {
		if d := s.Max[axis] - p[axis]; d < best {
			best = d
			normal = mgl64.Vec3{}
			normal[axis] = 1
		}
		if d := p[axis] - s.Min[axis]; d < best {
			best = d
			normal = mgl64.Vec3{}
			normal[axis] = -1
		}
	}
	return normal, best
}

type stepHook struct {
	fn     func(World)
	active bool
}

// Space is a fixed-timestep world of dynamic box bodies and static boxes.
// It is not safe for concurrent use; drive it from the game loop goroutine.
type Space struct {
	Gravity mgl64.Vec3

	timestep float64
	bodies   []*Body
	statics  []StaticBox
	hooks    []*stepHook
	steps    uint64
}

// NewSpace creates a world that advances by timestep seconds per Step.
func NewSpace(timestep float64, gravity mgl64.Vec3) *Space {
	return &Space{
		Gravity:  gravity,
		timestep: timestep,
	}
}

func (s *Space) Timestep() float64 { return s.timestep }

// Steps returns the number of completed steps.
func (s *Space) Steps() uint64 { return s.steps }

// AddBody inserts a body; it becomes Valid until removed.
func (s *Space) AddBody(b *Body) {
	if b.space == s {
		return
	}
	b.space = s
	s.bodies = append(s.bodies, b)
}

// RemoveBody detaches a body. Handles held elsewhere report Valid() == false afterwards.
func (s *Space) RemoveBody(b *Body) {
	for i, other := range s.bodies {
		if other == b {
			s.bodies = append(s.bodies[:i], s.bodies[i+1:]...)
			b.space = nil
			return
		}
	}
}

// Bodies returns the number of live bodies.
func (s *Space) Bodies() int { return len(s.bodies) }

// AddStatic inserts a fixed collider.
func (s *Space) AddStatic(box StaticBox) {
	s.statics = append(s.statics, box)
}

// OnBeforeStep registers fn to run at the start of every Step, before
// integration. The returned func unregisters it.
func (s *Space) OnBeforeStep(fn func(World)) func() {
	h := &stepHook{fn: fn, active: true}
	s.hooks = append(s.hooks, h)
	return func() {
		h.active = false
		for i, other := range s.hooks {
			if other == h {
				s.hooks = append(s.hooks[:i], s.hooks[i+1:]...)
				return
			}
		}
	}
}

// Step runs the pre-step hooks, integrates every body and resolves contacts
// against static colliders.
func (s *Space) Step() {
	for _, h := range append([]*stepHook(nil), s.hooks...) {
		if h.active {
			h.fn(s)
		}
	}

	dt := s.timestep
	for _, b := range s.bodies {
		b.integrate(dt, s.Gravity)
		s.resolveStatics(b)
	}
	s.steps++
}

// resolveStatics pushes collider corners out of static boxes and removes the
// approaching normal velocity with a friction-limited impulse.
func (s *Space) resolveStatics(b *Body) {
	var (
		deepest float64
		push    mgl64.Vec3
	)
	for _, corner := range b.Corners() {
		for _, st := range s.statics {
			if !st.contains(corner) {
				continue
			}
			n, depth := st.penetration(corner)
			if depth > deepest {
				deepest = depth
				push = n
			}

			vel := b.VelocityAtPoint(corner)
			vn := vel.Dot(n)
			if vn >= 0 {
				continue
			}
			r := corner.Sub(b.position)
			k := 1/b.mass + n.Dot(b.invInertiaWorld(r.Cross(n)).Cross(r))
			jn := -vn / k
			b.applyImpulseAt(n.Mul(jn), corner)

			tangent := vel.Sub(n.Mul(vn))
			if tl := tangent.Len(); tl > 1e-9 {
				t := tangent.Mul(1 / tl)
				kt := 1/b.mass + t.Dot(b.invInertiaWorld(r.Cross(t)).Cross(r))
				jt := math.Min(tl/kt, st.Friction*jn)
				b.applyImpulseAt(t.Mul(-jt), corner)
			}
		}
	}
	if deepest > 0 {
		b.position = b.position.Add(push.Mul(deepest))
	}
}
