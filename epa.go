package cm3

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// Normals shorter than this mark a degenerate polytope face.
	epaDegenerateNormal = 1e-12
	// Distance a new support point must lie in front of a face to see it.
	epaVisibleEpsilon = 1e-9
	// Upper bound of the boolean GJK run that seeds the polytope.
	epaGjkIterations = 64
)

// epaVertex is a point of the Minkowski difference A - B with the support
// points it was built from.
type epaVertex struct {
	w, a, b mgl64.Vec3
}

type epaFace struct {
	v      [3]int
	normal mgl64.Vec3
	dist   float64
}

type epaEdge struct {
	a, b int
}

// epaPenetrationSolver computes the penetration depth of two overlapping
// convex shapes. A boolean GJK run finds a simplex enclosing the origin, the
// polytope is then expanded towards the surface of the Minkowski difference.
type epaPenetrationSolver struct {
	maxIterations int
	tolerance     float64
	cfg           *Config
}

func newEpaPenetrationSolver(cfg *Config) *epaPenetrationSolver {
	solver := &epaPenetrationSolver{cfg: cfg}
	if cfg != nil {
		solver.maxIterations = cfg.EpaMaxIterations
		solver.tolerance = cfg.EpaTolerance
	}
	if solver.maxIterations <= 0 {
		solver.maxIterations = DefaultConfig().EpaMaxIterations
	}
	if solver.tolerance <= 0 {
		solver.tolerance = DefaultConfig().EpaTolerance
	}
	return solver
}

// calcPenDepth returns the deepest points of A inside B and of B inside A.
// ok is false when the shapes do not overlap or the polytope degenerates.
func (epa *epaPenetrationSolver) calcPenDepth(shapeA, shapeB ConvexShape, transA, transB Transform, guess mgl64.Vec3) (pointOnA, pointOnB mgl64.Vec3, ok bool) {
	support := func(dir mgl64.Vec3) epaVertex {
		a := worldSupport(shapeA, transA, dir)
		b := worldSupport(shapeB, transB, dir.Mul(-1))
		return epaVertex{w: a.Sub(b), a: a, b: b}
	}

	simplex, intersect := gjkEnclose(support, guess)
	if !intersect {
		return
	}
	verts := epaBlowUp(support, simplex)
	if len(verts) < 4 {
		return
	}

	centroid := verts[0].w.Add(verts[1].w).Add(verts[2].w).Add(verts[3].w).Mul(0.25)
	faces := make([]epaFace, 0, 32)
	for _, tri := range [4][3]int{{0, 1, 2}, {0, 3, 1}, {0, 2, 3}, {1, 3, 2}} {
		if f, valid := newEpaFace(verts, tri[0], tri[1], tri[2], centroid); valid {
			faces = append(faces, f)
		}
	}
	if len(faces) == 0 {
		return
	}

	var best epaFace
	converged := false
	for iter := 0; iter < epa.maxIterations; iter++ {
		closest := 0
		for i := range faces {
			if faces[i].dist < faces[closest].dist {
				closest = i
			}
		}
		best = faces[closest]

		p := support(best.normal)
		d := p.w.Dot(best.normal)
		if d-best.dist < epa.tolerance {
			converged = true
			break
		}

		verts = append(verts, p)
		newIndex := len(verts) - 1

		var horizon []epaEdge
		kept := faces[:0]
		for _, f := range faces {
			if f.normal.Dot(p.w.Sub(verts[f.v[0]].w)) > epaVisibleEpsilon {
				for e := 0; e < 3; e++ {
					horizon = addHorizonEdge(horizon, epaEdge{f.v[e], f.v[(e+1)%3]})
				}
				continue
			}
			kept = append(kept, f)
		}
		faces = kept
		if len(horizon) == 0 {
			converged = true
			break
		}
		for _, e := range horizon {
			if f, valid := newEpaFace(verts, e.a, e.b, newIndex, centroid); valid {
				faces = append(faces, f)
			}
		}
		if len(faces) == 0 {
			return
		}
	}
	if !converged {
		epa.cfg.warn("High EPA iterations")
	}

	projected := best.normal.Mul(best.dist)
	u, v, w := barycentric(projected, verts[best.v[0]].w, verts[best.v[1]].w, verts[best.v[2]].w)
	va, vb, vc := verts[best.v[0]], verts[best.v[1]], verts[best.v[2]]
	pointOnA = va.a.Mul(u).Add(vb.a.Mul(v)).Add(vc.a.Mul(w))
	pointOnB = va.b.Mul(u).Add(vb.b.Mul(v)).Add(vc.b.Mul(w))
	return pointOnA, pointOnB, true
}

// newEpaFace builds the face a, b, c with its normal facing away from the
// interior point.
func newEpaFace(verts []epaVertex, a, b, c int, interior mgl64.Vec3) (epaFace, bool) {
	pa, pb, pc := verts[a].w, verts[b].w, verts[c].w
	n := pb.Sub(pa).Cross(pc.Sub(pa))
	l2 := n.LenSqr()
	if l2 < epaDegenerateNormal {
		return epaFace{}, false
	}
	n = n.Mul(1 / math.Sqrt(l2))
	if n.Dot(pa.Sub(interior)) < 0 {
		n = n.Mul(-1)
		b, c = c, b
	}
	return epaFace{v: [3]int{a, b, c}, normal: n, dist: n.Dot(pa)}, true
}

// addHorizonEdge toggles an edge: shared edges of two visible faces cancel out.
func addHorizonEdge(edges []epaEdge, e epaEdge) []epaEdge {
	for i, other := range edges {
		if other.a == e.b && other.b == e.a {
			edges[i] = edges[len(edges)-1]
			return edges[:len(edges)-1]
		}
	}
	return append(edges, e)
}

// gjkEnclose runs a boolean GJK on the full shapes and returns the final
// simplex. intersect is false if a separating direction was found.
func gjkEnclose(support func(mgl64.Vec3) epaVertex, guess mgl64.Vec3) (simplex []epaVertex, intersect bool) {
	dir := guess
	if dir.LenSqr() < fltEpsilon {
		dir = mgl64.Vec3{1, 0, 0}
	}
	simplex = make([]epaVertex, 0, 4)
	simplex = append(simplex, support(dir))
	dir = simplex[0].w.Mul(-1)

	for i := 0; i < epaGjkIterations; i++ {
		if dir.LenSqr() < fltEpsilon*fltEpsilon {
			// origin lies on the current simplex
			return simplex, true
		}
		p := support(dir)
		if p.w.Dot(dir) < 0 {
			return simplex, false
		}
		simplex = append(simplex, p)
		var contains bool
		simplex, dir, contains = doSimplex(simplex)
		if contains {
			return simplex, true
		}
	}
	return simplex, false
}

// doSimplex reduces the simplex to the feature closest to the origin and
// returns the next search direction. The last vertex is the newest one.
func doSimplex(s []epaVertex) ([]epaVertex, mgl64.Vec3, bool) {
	switch len(s) {
	case 2:
		a, b := s[1].w, s[0].w
		ab := b.Sub(a)
		ao := a.Mul(-1)
		if ab.Dot(ao) > 0 {
			return s, ab.Cross(ao).Cross(ab), false
		}
		return []epaVertex{s[1]}, ao, false
	case 3:
		return doTriangle(s)
	case 4:
		return doTetrahedron(s)
	}
	return s, s[0].w.Mul(-1), false
}

func doTriangle(s []epaVertex) ([]epaVertex, mgl64.Vec3, bool) {
	a, b, c := s[2], s[1], s[0]
	ab := b.w.Sub(a.w)
	ac := c.w.Sub(a.w)
	ao := a.w.Mul(-1)
	abc := ab.Cross(ac)

	if abc.Cross(ac).Dot(ao) > 0 {
		if ac.Dot(ao) > 0 {
			return []epaVertex{c, a}, ac.Cross(ao).Cross(ac), false
		}
		return doSimplex([]epaVertex{b, a})
	}
	if ab.Cross(abc).Dot(ao) > 0 {
		return doSimplex([]epaVertex{b, a})
	}
	if abc.Dot(ao) > 0 {
		return []epaVertex{c, b, a}, abc, false
	}
	return []epaVertex{b, c, a}, abc.Mul(-1), false
}

func doTetrahedron(s []epaVertex) ([]epaVertex, mgl64.Vec3, bool) {
	a, b, c, d := s[3], s[2], s[1], s[0]
	ab := b.w.Sub(a.w)
	ac := c.w.Sub(a.w)
	ad := d.w.Sub(a.w)
	ao := a.w.Mul(-1)

	abc := ab.Cross(ac)
	acd := ac.Cross(ad)
	adb := ad.Cross(ab)

	// orient the face normals away from the opposite vertex
	if abc.Dot(ad) > 0 {
		abc = abc.Mul(-1)
	}
	if acd.Dot(ab) > 0 {
		acd = acd.Mul(-1)
	}
	if adb.Dot(ac) > 0 {
		adb = adb.Mul(-1)
	}

	if abc.Dot(ao) > 0 {
		return doTriangle([]epaVertex{c, b, a})
	}
	if acd.Dot(ao) > 0 {
		return doTriangle([]epaVertex{d, c, a})
	}
	if adb.Dot(ao) > 0 {
		return doTriangle([]epaVertex{b, d, a})
	}
	return s, mgl64.Vec3{}, true
}

// epaBlowUp grows a simplex that touches the origin into a tetrahedron.
func epaBlowUp(support func(mgl64.Vec3) epaVertex, simplex []epaVertex) []epaVertex {
	verts := append([]epaVertex(nil), simplex...)
	axes := [6]mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}

	if len(verts) == 1 {
		for _, axis := range axes {
			p := support(axis)
			if p.w.Sub(verts[0].w).LenSqr() > epaDegenerateNormal {
				verts = append(verts, p)
				break
			}
		}
	}
	if len(verts) == 2 {
		line := verts[1].w.Sub(verts[0].w)
		p1, p2 := planeSpace(normalizeOr(line, mgl64.Vec3{1, 0, 0}))
		for _, dir := range [4]mgl64.Vec3{p1, p1.Mul(-1), p2, p2.Mul(-1)} {
			p := support(dir)
			if line.Cross(p.w.Sub(verts[0].w)).LenSqr() > epaDegenerateNormal {
				verts = append(verts, p)
				break
			}
		}
	}
	if len(verts) == 3 {
		n := verts[1].w.Sub(verts[0].w).Cross(verts[2].w.Sub(verts[0].w))
		for _, dir := range [2]mgl64.Vec3{n, n.Mul(-1)} {
			p := support(dir)
			if math.Abs(p.w.Sub(verts[0].w).Dot(n)) > epaDegenerateNormal {
				verts = append(verts, p)
				break
			}
		}
	}
	return verts
}

// barycentric returns the coordinates of p projected onto triangle abc.
func barycentric(p, a, b, c mgl64.Vec3) (u, v, w float64) {
	v0 := b.Sub(a)
	v1 := c.Sub(a)
	v2 := p.Sub(a)
	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)
	denom := d00*d11 - d01*d01
	if math.Abs(denom) < epaDegenerateNormal {
		return 1, 0, 0
	}
	v = (d11*d20 - d01*d21) / denom
	w = (d00*d21 - d01*d20) / denom
	u = 1 - v - w
	return
}
