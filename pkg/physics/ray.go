package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CastRay implements World. dir need not be normalised; distances are in
// units of its normalised length.
func (s *Space) CastRay(origin, dir mgl64.Vec3, maxDist float64, exclude ...RigidBody) (RayHit, bool) {
	l := dir.Len()
	if l == 0 || maxDist <= 0 {
		return RayHit{}, false
	}
	dir = dir.Mul(1 / l)

	best := RayHit{Distance: math.Inf(1)}
	found := false

	for _, st := range s.statics {
		t, n, ok := raySlab(origin, dir, st.Min, st.Max, maxDist)
		if ok && t < best.Distance {
			best = RayHit{Distance: t, Point: origin.Add(dir.Mul(t)), Normal: n, Friction: st.Friction}
			found = true
		}
	}

	for _, b := range s.bodies {
		if excluded(b, exclude) {
			continue
		}
		// Cast in the collider's local frame, then bring the normal back.
		inv := b.rotation.Conjugate()
		localOrigin := inv.Rotate(origin.Sub(b.colliderCenter()))
		localDir := inv.Rotate(dir)
		t, n, ok := raySlab(localOrigin, localDir, b.half.Mul(-1), b.half, maxDist)
		if ok && t < best.Distance {
			best = RayHit{Distance: t, Point: origin.Add(dir.Mul(t)), Normal: b.rotation.Rotate(n), Friction: b.friction}
			found = true
		}
	}

	return best, found
}

func excluded(b *Body, exclude []RigidBody) bool {
	for _, e := range exclude {
		if eb, ok := e.(*Body); ok && eb == b {
			return true
		}
	}
	return false
}

// raySlab intersects a ray with an axis-aligned box. A ray starting inside the
// box reports a hit at distance 0 facing back along the ray.
func raySlab(origin, dir, min, max mgl64.Vec3, maxDist float64) (float64, mgl64.Vec3, bool) {
	tNear, tFar := math.Inf(-1), math.Inf(1)
	var normal mgl64.Vec3

	for axis := 0; axis < 3; axis++ {
		if math.Abs(dir[axis]) < 1e-12 {
			if origin[axis] < min[axis] || origin[axis] > max[axis] {
				return 0, normal, false
			}
			continue
		}
		inv := 1 / dir[axis]
		t1 := (min[axis] - origin[axis]) * inv
		t2 := (max[axis] - origin[axis]) * inv
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1
		}
		if t1 > tNear {
			tNear = t1
			normal = mgl64.Vec3{}
			normal[axis] = sign
		}
		if t2 < tFar {
			tFar = t2
		}
		if tNear > tFar || tFar < 0 {
			return 0, normal, false
		}
	}

	if tNear < 0 {
		return 0, dir.Mul(-1), true
	}
	if tNear > maxDist {
		return 0, normal, false
	}
	return tNear, normal, true
}
