package cm3

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	simplexMaxVertices    = 5
	equalVertexThreshold  = 1e-4
	degenerateTetraVolume = 1e-4
)

type usedVertices uint8

const (
	usedA usedVertices = 1 << iota
	usedB
	usedC
	usedD
)

// subSimplexResult is the closest point of a sub simplex to the origin with
// its barycentric coordinates.
type subSimplexResult struct {
	closestPoint mgl64.Vec3
	used         usedVertices
	bary         [4]float64
	degenerate   bool
}

func (r *subSimplexResult) reset() {
	*r = subSimplexResult{}
}

func (r *subSimplexResult) isValid() bool {
	return r.bary[0] >= 0 && r.bary[1] >= 0 && r.bary[2] >= 0 && r.bary[3] >= 0
}

func (r *subSimplexResult) setBary(a, b, c, d float64) {
	r.bary = [4]float64{a, b, c, d}
}

// voronoiSimplexSolver computes the point of a 1 to 4 vertex simplex closest to
// the origin using Voronoi region tests. Each vertex w = p - q keeps the
// support points p on A and q on B it was built from, so the closest points on
// both shapes follow from the barycentric coordinates.
type voronoiSimplexSolver struct {
	numVertices int
	w, p, q     [simplexMaxVertices]mgl64.Vec3

	cachedP1, cachedP2 mgl64.Vec3
	cachedV            mgl64.Vec3
	lastW              mgl64.Vec3
	cachedValidClosest bool
	cachedBC           subSimplexResult
	needsUpdate        bool
}

var simplexPool = sync.Pool{
	New: func() any {
		return &voronoiSimplexSolver{}
	},
}

func getSimplexSolver() *voronoiSimplexSolver {
	s := simplexPool.Get().(*voronoiSimplexSolver)
	s.reset()
	return s
}

func putSimplexSolver(s *voronoiSimplexSolver) {
	simplexPool.Put(s)
}

func (s *voronoiSimplexSolver) reset() {
	s.cachedValidClosest = false
	s.numVertices = 0
	s.needsUpdate = true
	s.lastW = splat(1e30)
	s.cachedBC.reset()
}

func (s *voronoiSimplexSolver) addVertex(w, p, q mgl64.Vec3) {
	s.lastW = w
	s.needsUpdate = true
	s.w[s.numVertices] = w
	s.p[s.numVertices] = p
	s.q[s.numVertices] = q
	s.numVertices++
}

func (s *voronoiSimplexSolver) removeVertex(index int) {
	s.numVertices--
	s.w[index] = s.w[s.numVertices]
	s.p[index] = s.p[s.numVertices]
	s.q[index] = s.q[s.numVertices]
}

func (s *voronoiSimplexSolver) reduceVertices(used usedVertices) {
	if s.numVertices >= 4 && used&usedD == 0 {
		s.removeVertex(3)
	}
	if s.numVertices >= 3 && used&usedC == 0 {
		s.removeVertex(2)
	}
	if s.numVertices >= 2 && used&usedB == 0 {
		s.removeVertex(1)
	}
	if s.numVertices >= 1 && used&usedA == 0 {
		s.removeVertex(0)
	}
}

func (s *voronoiSimplexSolver) updateClosestVectorAndPoints() bool {
	if !s.needsUpdate {
		return s.cachedValidClosest
	}
	s.cachedBC.reset()
	s.needsUpdate = false

	switch s.numVertices {
	case 0:
		s.cachedValidClosest = false
	case 1:
		s.cachedP1 = s.p[0]
		s.cachedP2 = s.q[0]
		s.cachedV = s.cachedP1.Sub(s.cachedP2)
		s.cachedBC.setBary(1, 0, 0, 0)
		s.cachedValidClosest = s.cachedBC.isValid()
	case 2:
		from, to := s.w[0], s.w[1]
		diff := from.Mul(-1)
		v := to.Sub(from)
		t := v.Dot(diff)
		if t > 0 {
			dotVV := v.Dot(v)
			if t < dotVV {
				t /= dotVV
				s.cachedBC.used |= usedA
			} else {
				t = 1
			}
			s.cachedBC.used |= usedB
		} else {
			t = 0
			s.cachedBC.used |= usedA
		}
		s.cachedBC.setBary(1-t, t, 0, 0)
		s.cachedP1 = s.p[0].Add(s.p[1].Sub(s.p[0]).Mul(t))
		s.cachedP2 = s.q[0].Add(s.q[1].Sub(s.q[0]).Mul(t))
		s.cachedV = s.cachedP1.Sub(s.cachedP2)
		s.reduceVertices(s.cachedBC.used)
		s.cachedValidClosest = s.cachedBC.isValid()
	case 3:
		closestPtPointTriangle(mgl64.Vec3{}, s.w[0], s.w[1], s.w[2], &s.cachedBC)
		s.cachedP1 = s.interpolate(&s.p, 3)
		s.cachedP2 = s.interpolate(&s.q, 3)
		s.cachedV = s.cachedP1.Sub(s.cachedP2)
		s.reduceVertices(s.cachedBC.used)
		s.cachedValidClosest = s.cachedBC.isValid()
	case 4:
		if closestPtPointTetrahedron(mgl64.Vec3{}, s.w[0], s.w[1], s.w[2], s.w[3], &s.cachedBC) {
			s.cachedP1 = s.interpolate(&s.p, 4)
			s.cachedP2 = s.interpolate(&s.q, 4)
			s.cachedV = s.cachedP1.Sub(s.cachedP2)
			s.reduceVertices(s.cachedBC.used)
			s.cachedValidClosest = s.cachedBC.isValid()
		} else if s.cachedBC.degenerate {
			s.cachedValidClosest = false
		} else {
			// origin inside the tetrahedron
			s.cachedValidClosest = true
			s.cachedV = mgl64.Vec3{}
		}
	default:
		s.cachedValidClosest = false
	}
	return s.cachedValidClosest
}

func (s *voronoiSimplexSolver) interpolate(points *[simplexMaxVertices]mgl64.Vec3, n int) mgl64.Vec3 {
	var out mgl64.Vec3
	for i := 0; i < n; i++ {
		out = out.Add(points[i].Mul(s.cachedBC.bary[i]))
	}
	return out
}

// closest returns the point of the simplex closest to the origin.
func (s *voronoiSimplexSolver) closest() (mgl64.Vec3, bool) {
	ok := s.updateClosestVectorAndPoints()
	return s.cachedV, ok
}

func (s *voronoiSimplexSolver) maxVertex() float64 {
	maxV := 0.0
	for i := 0; i < s.numVertices; i++ {
		if l2 := s.w[i].LenSqr(); maxV < l2 {
			maxV = l2
		}
	}
	return maxV
}

func (s *voronoiSimplexSolver) fullSimplex() bool {
	return s.numVertices == 4
}

// inSimplex reports whether w was already added, either to the current
// reduced simplex or as the last vertex.
func (s *voronoiSimplexSolver) inSimplex(w mgl64.Vec3) bool {
	for i := 0; i < s.numVertices; i++ {
		if s.w[i].Sub(w).LenSqr() <= equalVertexThreshold {
			return true
		}
	}
	return w == s.lastW
}

func (s *voronoiSimplexSolver) backupClosest() mgl64.Vec3 {
	return s.cachedV
}

func (s *voronoiSimplexSolver) emptySimplex() bool {
	return s.numVertices == 0
}

// computePoints returns the closest points on A and on B.
func (s *voronoiSimplexSolver) computePoints() (mgl64.Vec3, mgl64.Vec3) {
	s.updateClosestVectorAndPoints()
	return s.cachedP1, s.cachedP2
}

// closestPtPointTriangle finds the point of triangle abc closest to p
// (Ericson, Real-Time Collision Detection 5.1.5).
func closestPtPointTriangle(p, a, b, c mgl64.Vec3, result *subSimplexResult) {
	result.used = 0

	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)
	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		result.closestPoint = a
		result.used = usedA
		result.setBary(1, 0, 0, 0)
		return
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		result.closestPoint = b
		result.used = usedB
		result.setBary(0, 1, 0, 0)
		return
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		result.closestPoint = a.Add(ab.Mul(v))
		result.used = usedA | usedB
		result.setBary(1-v, v, 0, 0)
		return
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		result.closestPoint = c
		result.used = usedC
		result.setBary(0, 0, 1, 0)
		return
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		result.closestPoint = a.Add(ac.Mul(w))
		result.used = usedA | usedC
		result.setBary(1-w, 0, w, 0)
		return
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		result.closestPoint = b.Add(c.Sub(b).Mul(w))
		result.used = usedB | usedC
		result.setBary(0, 1-w, w, 0)
		return
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	result.closestPoint = a.Add(ab.Mul(v)).Add(ac.Mul(w))
	result.used = usedA | usedB | usedC
	result.setBary(1-v-w, v, w, 0)
}

// pointOutsideOfPlane returns 1 if p and d lie on opposite sides of the plane
// through abc, 0 if they are on the same side and -1 for a degenerate
// tetrahedron.
func pointOutsideOfPlane(p, a, b, c, d mgl64.Vec3) int {
	normal := b.Sub(a).Cross(c.Sub(a))
	signp := p.Sub(a).Dot(normal)
	signd := d.Sub(a).Dot(normal)
	if signd*signd < degenerateTetraVolume*degenerateTetraVolume {
		return -1
	}
	if signp*signd < 0 {
		return 1
	}
	return 0
}

// closestPtPointTetrahedron returns false when p is inside abcd or the
// tetrahedron is degenerate; result.degenerate tells the two apart.
func closestPtPointTetrahedron(p, a, b, c, d mgl64.Vec3, result *subSimplexResult) bool {
	var tmp subSimplexResult

	result.closestPoint = p
	result.used = usedA | usedB | usedC | usedD

	outsideABC := pointOutsideOfPlane(p, a, b, c, d)
	outsideACD := pointOutsideOfPlane(p, a, c, d, b)
	outsideADB := pointOutsideOfPlane(p, a, d, b, c)
	outsideBDC := pointOutsideOfPlane(p, b, d, c, a)

	if outsideABC < 0 || outsideACD < 0 || outsideADB < 0 || outsideBDC < 0 {
		result.degenerate = true
		return false
	}
	if outsideABC == 0 && outsideACD == 0 && outsideADB == 0 && outsideBDC == 0 {
		return false
	}

	bestSqDist := infinity
	pick := func(sqDist float64, used usedVertices, bary [4]float64) {
		if sqDist < bestSqDist {
			bestSqDist = sqDist
			result.closestPoint = tmp.closestPoint
			result.used = used
			result.bary = bary
		}
	}
	bit := func(from, to usedVertices) usedVertices {
		if tmp.used&from != 0 {
			return to
		}
		return 0
	}

	if outsideABC != 0 {
		closestPtPointTriangle(p, a, b, c, &tmp)
		pick(tmp.closestPoint.Sub(p).LenSqr(),
			bit(usedA, usedA)|bit(usedB, usedB)|bit(usedC, usedC),
			[4]float64{tmp.bary[0], tmp.bary[1], tmp.bary[2], 0})
	}
	if outsideACD != 0 {
		closestPtPointTriangle(p, a, c, d, &tmp)
		pick(tmp.closestPoint.Sub(p).LenSqr(),
			bit(usedA, usedA)|bit(usedB, usedC)|bit(usedC, usedD),
			[4]float64{tmp.bary[0], 0, tmp.bary[1], tmp.bary[2]})
	}
	if outsideADB != 0 {
		closestPtPointTriangle(p, a, d, b, &tmp)
		pick(tmp.closestPoint.Sub(p).LenSqr(),
			bit(usedA, usedA)|bit(usedC, usedB)|bit(usedB, usedD),
			[4]float64{tmp.bary[0], tmp.bary[2], 0, tmp.bary[1]})
	}
	if outsideBDC != 0 {
		closestPtPointTriangle(p, b, d, c, &tmp)
		pick(tmp.closestPoint.Sub(p).LenSqr(),
			bit(usedA, usedB)|bit(usedC, usedC)|bit(usedB, usedD),
			[4]float64{0, tmp.bary[0], tmp.bary[2], tmp.bary[1]})
	}
	return true
}
