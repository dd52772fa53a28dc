package cm3

// AlgorithmMatrix maps an ordered pair of shape types to the factory of the
// algorithm that handles it.
type AlgorithmMatrix struct {
	factories [ShapeTypeNum][ShapeTypeNum]AlgorithmFactory
}

// NewDefaultAlgorithmMatrix fills the matrix with the built in algorithms.
// Rules are tried in order:
//
//  1. sphere and sphere
//  2. convex and static plane, swapped when the plane comes first
//  3. convex and convex
//  4. convex and concave, swapped when the concave shape comes first
//  5. a compound on either side, swapped when the compound comes second
//  6. the empty algorithm
//
// Compound against plane resolves through rule 5, so the compound is split
// into its children first.
func NewDefaultAlgorithmMatrix() *AlgorithmMatrix {
	sphereSphere := NewSphereSphereAlgorithmFactory()
	convexPlane := NewConvexPlaneAlgorithmFactory(false)
	planeConvex := NewConvexPlaneAlgorithmFactory(true)
	convexConvex := NewConvexConvexAlgorithmFactory()
	convexConcave := NewConvexConcaveAlgorithmFactory(false)
	concaveConvex := NewConvexConcaveAlgorithmFactory(true)
	compound := NewCompoundAlgorithmFactory(false)
	swappedCompound := NewCompoundAlgorithmFactory(true)
	empty := NewEmptyAlgorithmFactory()

	m := &AlgorithmMatrix{}
	for i := ShapeType(0); i < ShapeTypeNum; i++ {
		for j := ShapeType(0); j < ShapeTypeNum; j++ {
			var f AlgorithmFactory
			switch {
			case i == SphereShapeType && j == SphereShapeType:
				f = sphereSphere
			case i.IsConvex() && j == StaticPlaneShapeType:
				f = convexPlane
			case j.IsConvex() && i == StaticPlaneShapeType:
				f = planeConvex
			case i.IsConvex() && j.IsConvex():
				f = convexConvex
			case i.IsConvex() && j.IsConcave():
				f = convexConcave
			case j.IsConvex() && i.IsConcave():
				f = concaveConvex
			case i.IsCompound():
				f = compound
			case j.IsCompound():
				f = swappedCompound
			default:
				f = empty
			}
			m.factories[i][j] = f
		}
	}
	return m
}

// Lookup returns the factory for the pair of shape types.
func (m *AlgorithmMatrix) Lookup(a, b ShapeType) AlgorithmFactory {
	return m.factories[a][b]
}

// Register overrides the factory of one ordered pair of shape types.
func (m *AlgorithmMatrix) Register(a, b ShapeType, factory AlgorithmFactory) {
	m.factories[a][b] = factory
}
