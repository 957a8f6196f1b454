// Package inspector converts a picked scene node into a flat attribute
// record suitable for display and for correlating with stored issues.
package inspector

import (
	"fmt"
	"time"

	"bim-viewer-service/internal/scene"
)

// Record maps attribute names to display values (strings or numbers).
type Record map[string]any

// ObjectID derives the identifier used to correlate issues with a model
// part: embedded metadata name first, then the node name, then the
// session-scoped instance UUID. The result is not stable across re-exports
// of the same logical part.
func ObjectID(node *scene.Node) string {
	if node == nil {
		return ""
	}
	if name, ok := node.UserData["name"].(string); ok && name != "" {
		return name
	}
	if node.Name != "" && node.Name != node.Root().Name {
		return node.Name
	}
	return node.UUID
}

// Inspect produces the Object Record for a picked node. It is total: any
// per-field extraction problem is omitted from the record rather than
// surfaced as an error, and the scene graph is never mutated. A node with
// no metadata, material or geometry yields a minimal record of type,
// transform, timestamp and UUID.
func Inspect(node *scene.Node) Record {
	rec := Record{}
	if node == nil {
		stamp(rec, "")
		return rec
	}

	// Structural fields. These never count as authoring metadata.
	rec["objectType"] = node.Type
	rec["position"] = formatVec3(node.Position)
	rec["rotation"] = formatVec3(node.Rotation)
	rec["scale"] = formatVec3(node.Scale)

	if node.Material != nil {
		if node.Material.Name != "" {
			rec["materialName"] = node.Material.Name
		}
		rec["materialColor"] = formatColor(node.Material.BaseColor)
	}
	if node.Geometry != nil {
		rec["vertexCount"] = node.Geometry.VertexCount
		if node.Geometry.IndexCount > 0 {
			rec["faceCount"] = node.Geometry.IndexCount / 3
		}
	}

	// The scene-root label is suppressed as an object name.
	rootLabel := node.Root().Name
	if node.Name != "" && node.Name != rootLabel {
		rec["objectName"] = node.Name
	}

	// Authoring metadata. A bare "name" key is recorded but treated as
	// weak evidence; anything else flips the meaningful flag.
	meaningful := false
	if len(node.UserData) > 0 {
		if extras, ok := node.UserData["extras"].(map[string]any); ok && len(extras) > 0 {
			for k, v := range extras {
				rec[k] = v
			}
			meaningful = true
		}
		for k, v := range node.UserData {
			switch k {
			case "extras":
			case "name":
				rec["revitName"] = v
			default:
				rec[k] = v
				meaningful = true
			}
		}
	}

	// Fallback: the first ancestor (scene root excluded) that carries any
	// metadata contributes its keys, prefixed; more distant ancestors are
	// never consulted.
	if !meaningful {
		for p := node.Parent; p != nil && p.Parent != nil; p = p.Parent {
			if copyParentMetadata(rec, p.UserData) {
				break
			}
		}
	}

	stamp(rec, node.UUID)
	return rec
}

// copyParentMetadata merges an ancestor's metadata bag into the record and
// reports whether anything was contributed.
func copyParentMetadata(rec Record, userData map[string]any) bool {
	contributed := false
	for k, v := range userData {
		switch k {
		case "name":
			rec["parentRevitName"] = v
			contributed = true
		case "extras":
			if extras, ok := v.(map[string]any); ok && len(extras) > 0 {
				for ek, ev := range extras {
					rec["parent_"+ek] = ev
				}
				contributed = true
			}
		default:
			rec["parent_"+k] = v
			contributed = true
		}
	}
	return contributed
}

func stamp(rec Record, objectUUID string) {
	rec["clickedAt"] = time.Now().UTC().Format(time.RFC3339)
	if objectUUID != "" {
		rec["objectUUID"] = objectUUID
	}
}

func formatVec3(v [3]float64) string {
	return fmt.Sprintf("%.2f, %.2f, %.2f", v[0], v[1], v[2])
}

// formatColor renders RGBA base color factors as 0-255 RGB.
func formatColor(c [4]float64) string {
	return fmt.Sprintf("rgb(%d, %d, %d)", to255(c[0]), to255(c[1]), to255(c[2]))
}

func to255(f float64) int {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 255
	}
	return int(f*255 + 0.5)
}
