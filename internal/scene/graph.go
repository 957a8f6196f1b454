package scene

import (
	"io"
	"math"

	"github.com/google/uuid"
)

// DefaultRootLabel is the scene-root name used when the document does not
// name its scene. Clicking the root is a valid interaction, but its label
// must never be reported as an object name.
const DefaultRootLabel = "Scene"

// Material carries the display attributes of a node's surface.
type Material struct {
	Name      string
	BaseColor [4]float64 // RGBA factors in 0..1
}

// Geometry carries vertex and index statistics summed over a mesh's
// primitives. IndexCount is zero when no index buffer is present.
type Geometry struct {
	VertexCount int
	IndexCount  int
}

// Node is one element of a loaded model's hierarchy. Nodes exist only for
// the duration of a viewing session; UUID identifies the in-memory
// instance, not the logical model part.
type Node struct {
	Index    int    // glTF node index; -1 for the scene root
	UUID     string // session-scoped instance identifier
	Name     string
	Type     string // "Scene", "Mesh" or "Node"
	Position [3]float64
	Rotation [3]float64 // Euler XYZ, radians
	Scale    [3]float64
	Material *Material
	Geometry *Geometry
	UserData map[string]any

	Parent   *Node
	Children []*Node
}

// Root reports the scene root this node belongs to.
func (n *Node) Root() *Node {
	cur := n
	for cur.Parent != nil {
		cur = cur.Parent
	}
	return cur
}

// Scene is the transient tree built from one loaded GLB model.
type Scene struct {
	Root  *Node
	nodes map[int]*Node
}

// NodeByIndex resolves a glTF node index to its tree node, or nil.
func (s *Scene) NodeByIndex(index int) *Node {
	return s.nodes[index]
}

// NodeCount reports the number of addressable (non-root) nodes.
func (s *Scene) NodeCount() int {
	return len(s.nodes)
}

// Load parses a binary glTF model and builds its scene tree. Per-field
// problems (missing material, unnamed nodes, absent geometry) degrade to
// zero values; only a structurally broken container is an error.
func Load(r io.Reader) (*Scene, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	doc, err := decodeGLB(data)
	if err != nil {
		return nil, err
	}

	rootName := DefaultRootLabel
	var rootChildren []int
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		if doc.Scenes[idx].Name != "" {
			rootName = doc.Scenes[idx].Name
		}
		rootChildren = doc.Scenes[idx].Nodes
	}

	root := &Node{
		Index: -1,
		UUID:  uuid.NewString(),
		Name:  rootName,
		Type:  "Scene",
		Scale: [3]float64{1, 1, 1},
	}
	sc := &Scene{Root: root, nodes: make(map[int]*Node)}

	visited := make(map[int]bool)
	for _, child := range rootChildren {
		if node := sc.buildNode(doc, child, root, visited); node != nil {
			root.Children = append(root.Children, node)
		}
	}
	return sc, nil
}

// buildNode converts one glTF node and its subtree. The visited set guards
// against malformed documents that reference a node twice.
func (s *Scene) buildNode(doc *document, index int, parent *Node, visited map[int]bool) *Node {
	if index < 0 || index >= len(doc.Nodes) || visited[index] {
		return nil
	}
	visited[index] = true
	dn := doc.Nodes[index]

	node := &Node{
		Index:    index,
		UUID:     uuid.NewString(),
		Name:     dn.Name,
		Type:     "Node",
		Scale:    [3]float64{1, 1, 1},
		UserData: dn.extras(),
		Parent:   parent,
	}
	applyTransform(node, &dn)

	if dn.Mesh != nil && *dn.Mesh >= 0 && *dn.Mesh < len(doc.Meshes) {
		node.Type = "Mesh"
		mesh := doc.Meshes[*dn.Mesh]
		node.Geometry = meshGeometry(doc, mesh)
		node.Material = meshMaterial(doc, mesh)
	}

	s.nodes[index] = node
	for _, child := range dn.Children {
		if c := s.buildNode(doc, child, node, visited); c != nil {
			node.Children = append(node.Children, c)
		}
	}
	return node
}

func applyTransform(node *Node, dn *docNode) {
	if dn.Translation != nil {
		node.Position = *dn.Translation
	}
	if dn.Rotation != nil {
		node.Rotation = quaternionToEuler(*dn.Rotation)
	}
	if dn.Scale != nil {
		node.Scale = *dn.Scale
	}
	if dn.Matrix != nil && dn.Translation == nil && dn.Rotation == nil && dn.Scale == nil {
		m := *dn.Matrix
		node.Position = [3]float64{m[12], m[13], m[14]}
		node.Scale = [3]float64{
			math.Sqrt(m[0]*m[0] + m[1]*m[1] + m[2]*m[2]),
			math.Sqrt(m[4]*m[4] + m[5]*m[5] + m[6]*m[6]),
			math.Sqrt(m[8]*m[8] + m[9]*m[9] + m[10]*m[10]),
		}
	}
}

// meshGeometry sums vertex and index counts across a mesh's primitives.
// The vertex count comes from the POSITION accessor.
func meshGeometry(doc *document, mesh docMesh) *Geometry {
	if len(mesh.Primitives) == 0 {
		return nil
	}
	geo := &Geometry{}
	for _, prim := range mesh.Primitives {
		if posIdx, ok := prim.Attributes["POSITION"]; ok && posIdx >= 0 && posIdx < len(doc.Accessors) {
			geo.VertexCount += doc.Accessors[posIdx].Count
		}
		if prim.Indices != nil && *prim.Indices >= 0 && *prim.Indices < len(doc.Accessors) {
			geo.IndexCount += doc.Accessors[*prim.Indices].Count
		}
	}
	return geo
}

// meshMaterial resolves the first primitive's material, if any.
func meshMaterial(doc *document, mesh docMesh) *Material {
	for _, prim := range mesh.Primitives {
		if prim.Material == nil || *prim.Material < 0 || *prim.Material >= len(doc.Materials) {
			continue
		}
		dm := doc.Materials[*prim.Material]
		mat := &Material{Name: dm.Name, BaseColor: [4]float64{1, 1, 1, 1}}
		if dm.PBR != nil && dm.PBR.BaseColorFactor != nil {
			mat.BaseColor = *dm.PBR.BaseColorFactor
		}
		return mat
	}
	return nil
}

// quaternionToEuler converts a glTF unit quaternion to XYZ Euler angles in
// radians, matching what viewers display in transform panels.
func quaternionToEuler(q [4]float64) [3]float64 {
	x, y, z, w := q[0], q[1], q[2], q[3]

	sinrCosp := 2 * (w*x + y*z)
	cosrCosp := 1 - 2*(x*x+y*y)
	roll := math.Atan2(sinrCosp, cosrCosp)

	sinp := 2 * (w*y - z*x)
	var pitch float64
	if math.Abs(sinp) >= 1 {
		pitch = math.Copysign(math.Pi/2, sinp)
	} else {
		pitch = math.Asin(sinp)
	}

	sinyCosp := 2 * (w*z + x*y)
	cosyCosp := 1 - 2*(y*y+z*z)
	yaw := math.Atan2(sinyCosp, cosyCosp)

	return [3]float64{roll, pitch, yaw}
}
