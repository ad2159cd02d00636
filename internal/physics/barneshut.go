package physics

import (
	"math"

	"github.com/onnwee/nbody-sim/internal/sim"
	"github.com/onnwee/nbody-sim/internal/vec"
)

// Quadrant indices, split by comparing a point to the node center.
// Coordinates equal to the center go south/east.
const (
	quadNW = iota
	quadNE
	quadSW
	quadSE
)

// maxTreeDepth bounds subdivision so that coincident (or nearly coincident)
// bodies cannot drive insertion into an endless split. Bodies that still
// share a cell at this depth stay together in one leaf and the leaf
// aggregates them.
const maxTreeDepth = 48

// bhNode is a quadtree cell. Internal nodes own four children covering the
// four equal sub-squares; leaves hold the resident bodies (normally one,
// more only at the depth cap). Mass and center of mass are filled by a
// post-order aggregation pass after all insertions.
type bhNode struct {
	cx, cy   float64 // cell center
	halfSize float64

	mass       float64
	comX, comY float64

	bodies   []*sim.Body
	children [4]*bhNode
}

func (n *bhNode) isLeaf() bool { return n.children[0] == nil }

func (n *bhNode) subdivide() {
	hs := n.halfSize * 0.5
	n.children[quadNW] = &bhNode{cx: n.cx - hs, cy: n.cy - hs, halfSize: hs}
	n.children[quadNE] = &bhNode{cx: n.cx + hs, cy: n.cy - hs, halfSize: hs}
	n.children[quadSW] = &bhNode{cx: n.cx - hs, cy: n.cy + hs, halfSize: hs}
	n.children[quadSE] = &bhNode{cx: n.cx + hs, cy: n.cy + hs, halfSize: hs}
}

func (n *bhNode) quadrant(p vec.V2) int {
	east := p.X >= n.cx
	south := p.Y >= n.cy
	switch {
	case east && south:
		return quadSE
	case east:
		return quadNE
	case south:
		return quadSW
	default:
		return quadNW
	}
}

// quadtree is the per-step Barnes-Hut partition. It is built fresh for each
// force pass and discarded; bodies move every step, so there is nothing
// worth updating incrementally.
type quadtree struct {
	root *bhNode
}

// buildQuadtree constructs the tree over the given bodies. The bounding
// region is the square covering the position bounding box (square so that
// subdivision is uniform in x and y), with a minimum half-extent of 1 for
// the degenerate all-coincident case.
func buildQuadtree(bodies []*sim.Body) *quadtree {
	if len(bodies) == 0 {
		return &quadtree{}
	}

	minX, maxX := bodies[0].Pos.X, bodies[0].Pos.X
	minY, maxY := bodies[0].Pos.Y, bodies[0].Pos.Y
	for _, b := range bodies[1:] {
		minX = math.Min(minX, b.Pos.X)
		maxX = math.Max(maxX, b.Pos.X)
		minY = math.Min(minY, b.Pos.Y)
		maxY = math.Max(maxY, b.Pos.Y)
	}

	halfSize := math.Max(maxX-minX, maxY-minY) * 0.5
	if halfSize <= 0 {
		halfSize = 1
	}
	t := &quadtree{root: &bhNode{
		cx:       (minX + maxX) * 0.5,
		cy:       (minY + maxY) * 0.5,
		halfSize: halfSize,
	}}

	for _, b := range bodies {
		t.insert(b)
	}
	t.aggregate()
	return t
}

// insert places a body without recursion. When an occupied leaf must split,
// the resident body is re-queued and placed before descent continues.
type bhPending struct {
	node  *bhNode
	body  *sim.Body
	depth int
}

func (t *quadtree) insert(b *sim.Body) {
	stack := make([]bhPending, 0, 4)
	stack = append(stack, bhPending{t.root, b, 0})

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node, depth := p.node, p.depth
		for {
			if !node.isLeaf() {
				node = node.children[node.quadrant(p.body.Pos)]
				depth++
				continue
			}
			if len(node.bodies) == 0 || depth >= maxTreeDepth {
				node.bodies = append(node.bodies, p.body)
				break
			}

			// Occupied leaf below the depth cap: split and push the
			// resident body down before continuing with the new one.
			resident := node.bodies[0]
			node.bodies = nil
			node.subdivide()
			child := node.children[node.quadrant(resident.Pos)]
			stack = append(stack, bhPending{child, resident, depth + 1})
		}
	}
}

// aggregate fills mass and center of mass bottom-up with an explicit
// post-order stack. Internal nodes take the mass-weighted average of their
// non-empty children; leaves take their bodies' values directly.
func (t *quadtree) aggregate() {
	if t.root == nil {
		return
	}
	type frame struct {
		node    *bhNode
		visited bool
	}
	stack := make([]frame, 0, 128)
	stack = append(stack, frame{t.root, false})

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := f.node

		if node.isLeaf() {
			var m, cx, cy float64
			for _, b := range node.bodies {
				m += b.Mass
				cx += b.Mass * b.Pos.X
				cy += b.Mass * b.Pos.Y
			}
			node.mass = m
			if m > 0 {
				node.comX = cx / m
				node.comY = cy / m
			}
			continue
		}

		if !f.visited {
			stack = append(stack, frame{node, true})
			for _, c := range node.children {
				stack = append(stack, frame{c, false})
			}
			continue
		}

		var m, cx, cy float64
		for _, c := range node.children {
			if c.mass > 0 {
				m += c.mass
				cx += c.mass * c.comX
				cy += c.mass * c.comY
			}
		}
		node.mass = m
		if m > 0 {
			node.comX = cx / m
			node.comY = cy / m
		}
	}
}

// accelOn returns the approximate gravitational acceleration on target from
// all other bodies in the tree. A node whose extent-to-distance ratio
// (2*halfSize)/dist is below theta is treated as a single pseudo-body at
// its center of mass; otherwise its children are visited.
func (t *quadtree) accelOn(target *sim.Body, theta, g, eps2 float64) vec.V2 {
	if t.root == nil {
		return vec.V2{}
	}

	var ax, ay float64
	stack := make([]*bhNode, 0, 64)
	stack = append(stack, t.root)

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node.mass <= 0 {
			continue
		}

		if node.isLeaf() {
			for _, src := range node.bodies {
				if src == target {
					continue
				}
				dx := src.Pos.X - target.Pos.X
				dy := src.Pos.Y - target.Pos.Y
				gx, gy := pairKernel(dx, dy, src.Mass, g, eps2)
				ax += gx
				ay += gy
			}
			continue
		}

		dx := node.comX - target.Pos.X
		dy := node.comY - target.Pos.Y
		dist := math.Sqrt(dx*dx + dy*dy)
		if (2*node.halfSize)/dist < theta {
			gx, gy := pairKernel(dx, dy, node.mass, g, eps2)
			ax += gx
			ay += gy
			continue
		}
		for _, c := range node.children {
			stack = append(stack, c)
		}
	}
	return vec.V2{X: ax, Y: ay}
}

// pairKernel is the softened point-mass contribution shared by the exact
// evaluator and the tree: a = G*m*d * (|d|^2 + eps^2)^(-3/2). The softening
// is added to the squared distance before the inverse cube, never as a
// floor on distance.
func pairKernel(dx, dy, m, g, eps2 float64) (float64, float64) {
	r2 := dx*dx + dy*dy + eps2
	invR := 1 / math.Sqrt(r2)
	invR3 := invR * invR * invR
	return g * m * dx * invR3, g * m * dy * invR3
}
