package gltfutils

import (
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"

	"github.com/mogaika/frametree/frame"
	"github.com/mogaika/frametree/geom"
)

// glTF stores float32, the extras keep full precision transforms
const extrasKey = "frametree"

func NewDocument() *gltf.Document {
	doc := gltf.NewDocument()
	if len(doc.Scenes) == 0 {
		doc.Scenes = append(doc.Scenes, &gltf.Scene{Name: "Root Scene"})
	}
	return doc
}

// ExportFrame appends f and its subtree to doc.Nodes and returns the index
// of the node created for f. The node is not added to any scene.
func ExportFrame(doc *gltf.Document, f frame.Frame) (uint32, error) {
	iso := f.TransformToParent()
	t, q := iso.Translation, iso.Rotation

	node := &gltf.Node{
		Name:        f.Name(),
		Translation: [3]float32{float32(t[0]), float32(t[1]), float32(t[2])},
		Rotation:    [4]float32{float32(q.V[0]), float32(q.V[1]), float32(q.V[2]), float32(q.W)},
		Scale:       [3]float32{1, 1, 1},
		Extras: map[string]interface{}{
			extrasKey: map[string]interface{}{
				"position":    []float64{t[0], t[1], t[2]},
				"orientation": []float64{q.V[0], q.V[1], q.V[2], q.W},
			},
		},
	}

	nodeId := uint32(len(doc.Nodes))
	doc.Nodes = append(doc.Nodes, node)

	for _, child := range f.Children() {
		childId, err := ExportFrame(doc, child)
		if err != nil {
			return 0, errors.Wrapf(err, "Exporting child of %q", f.Path())
		}
		node.Children = append(node.Children, childId)
	}
	return nodeId, nil
}

func ExportTree(w io.Writer, f frame.Frame, binary bool) error {
	doc := NewDocument()
	rootId, err := ExportFrame(doc, f)
	if err != nil {
		return err
	}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, rootId)

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = binary
	return errors.Wrapf(encoder.Encode(doc), "Encoding gltf")
}

// ImportTree reads a document that has exactly one root node and builds a
// new frame tree from it. Nodes with scale or a non identity matrix can not
// be represented and are rejected.
func ImportTree(r io.Reader) (frame.Frame, error) {
	var doc gltf.Document
	if err := gltf.NewDecoder(r).Decode(&doc); err != nil {
		return frame.Frame{}, errors.Wrapf(err, "Decoding gltf")
	}
	return ImportDocument(&doc)
}

func ImportDocument(doc *gltf.Document) (frame.Frame, error) {
	rootId, err := findRoot(doc)
	if err != nil {
		return frame.Frame{}, err
	}

	rootNode := doc.Nodes[rootId]
	rootIso, err := nodeTransform(doc, rootId)
	if err != nil {
		return frame.Frame{}, err
	}
	if !rootIso.ApproxEqual(geom.IdentityIsometry(), 1e-6) {
		return frame.Frame{}, errors.Wrapf(frame.ErrRootHasNoParent, "Root node %q is not at the origin", rootNode.Name)
	}

	root := frame.NewRoot(nodeName(doc, rootId))
	visited := map[uint32]bool{rootId: true}
	if err := importChildren(doc, root, rootNode, visited); err != nil {
		return frame.Frame{}, err
	}
	return root, nil
}

func importChildren(doc *gltf.Document, parent frame.Frame, node *gltf.Node, visited map[uint32]bool) error {
	for _, childId := range node.Children {
		if int(childId) >= len(doc.Nodes) {
			return errors.Errorf("Node %q references missing child %d", node.Name, childId)
		}
		if visited[childId] {
			return errors.Errorf("Node %d is referenced twice", childId)
		}
		visited[childId] = true

		iso, err := nodeTransform(doc, childId)
		if err != nil {
			return err
		}
		child, err := parent.AddChild(nodeName(doc, childId), iso.Translation, iso.Orientation())
		if err != nil {
			return errors.Wrapf(err, "Importing node %d", childId)
		}
		if err := importChildren(doc, child, doc.Nodes[childId], visited); err != nil {
			return err
		}
	}
	return nil
}

func findRoot(doc *gltf.Document) (uint32, error) {
	if len(doc.Nodes) == 0 {
		return 0, errors.Errorf("Document has no nodes")
	}

	referenced := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if int(c) < len(referenced) {
				referenced[c] = true
			}
		}
	}

	roots := make([]uint32, 0, 1)
	for i := range doc.Nodes {
		if !referenced[i] {
			roots = append(roots, uint32(i))
		}
	}
	if len(roots) != 1 {
		return 0, errors.Errorf("Document must have exactly one root node, got %d", len(roots))
	}
	return roots[0], nil
}

func nodeName(doc *gltf.Document, id uint32) string {
	if name := doc.Nodes[id].Name; name != "" {
		return name
	}
	return fmt.Sprintf("node%d", id)
}

func nodeTransform(doc *gltf.Document, id uint32) (geom.Isometry, error) {
	n := doc.Nodes[id]

	if !isIdentityMatrix(n.Matrix) {
		return geom.Isometry{}, errors.Errorf("Node %q uses a matrix transform", n.Name)
	}
	for _, s := range n.Scale {
		if s != 0 && math.Abs(float64(s)-1) > 1e-6 {
			return geom.Isometry{}, errors.Errorf("Node %q is scaled by %v", n.Name, n.Scale)
		}
	}

	if iso, ok := extrasTransform(n.Extras); ok {
		return iso, nil
	}

	pos := mgl64.Vec3{float64(n.Translation[0]), float64(n.Translation[1]), float64(n.Translation[2])}
	if n.Rotation == [4]float32{} {
		return geom.FromTranslation(pos), nil
	}
	rot, err := geom.FromQuaternion(float64(n.Rotation[0]), float64(n.Rotation[1]), float64(n.Rotation[2]), float64(n.Rotation[3]))
	if err != nil {
		return geom.Isometry{}, errors.Wrapf(err, "Node %q rotation", n.Name)
	}
	return geom.NewIsometry(pos, rot), nil
}

func isIdentityMatrix(m [16]float32) bool {
	if m == [16]float32{} {
		return true
	}
	for i, v := range m {
		want := float32(0)
		if i%5 == 0 {
			want = 1
		}
		if v != want {
			return false
		}
	}
	return true
}

func extrasTransform(extras interface{}) (geom.Isometry, bool) {
	m, ok := extras.(map[string]interface{})
	if !ok {
		return geom.Isometry{}, false
	}
	data, ok := m[extrasKey].(map[string]interface{})
	if !ok {
		return geom.Isometry{}, false
	}
	pos, ok := floats(data["position"], 3)
	if !ok {
		return geom.Isometry{}, false
	}
	q, ok := floats(data["orientation"], 4)
	if !ok {
		return geom.Isometry{}, false
	}
	rot, err := geom.FromQuaternion(q[0], q[1], q[2], q[3])
	if err != nil {
		return geom.Isometry{}, false
	}
	return geom.NewIsometry(mgl64.Vec3{pos[0], pos[1], pos[2]}, rot), true
}

func floats(v interface{}, count int) ([]float64, bool) {
	switch vs := v.(type) {
	case []float64:
		return vs, len(vs) == count
	case []interface{}:
		if len(vs) != count {
			return nil, false
		}
		result := make([]float64, count)
		for i := range vs {
			f, ok := vs[i].(float64)
			if !ok {
				return nil, false
			}
			result[i] = f
		}
		return result, true
	}
	return nil, false
}
