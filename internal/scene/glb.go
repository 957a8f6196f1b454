package scene

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// GLB container layout: a 12-byte header followed by chunks, each with a
// 4-byte length and 4-byte type. The first chunk is the glTF JSON document;
// an optional BIN chunk holds buffer data (not needed for inspection).
const (
	glbMagic     = 0x46546C67 // "glTF"
	glbVersion   = 2
	chunkJSON    = 0x4E4F534A // "JSON"
	glbHeaderLen = 12
	chunkHdrLen  = 8
)

// document mirrors the subset of the glTF 2.0 schema the viewer inspects.
type document struct {
	Scene     *int          `json:"scene"`
	Scenes    []docScene    `json:"scenes"`
	Nodes     []docNode     `json:"nodes"`
	Meshes    []docMesh     `json:"meshes"`
	Materials []docMaterial `json:"materials"`
	Accessors []docAccessor `json:"accessors"`
}

type docScene struct {
	Name  string `json:"name"`
	Nodes []int  `json:"nodes"`
}

type docNode struct {
	Name        string          `json:"name"`
	Children    []int           `json:"children"`
	Mesh        *int            `json:"mesh"`
	Translation *[3]float64     `json:"translation"`
	Rotation    *[4]float64     `json:"rotation"` // quaternion x, y, z, w
	Scale       *[3]float64     `json:"scale"`
	Matrix      *[16]float64    `json:"matrix"` // column-major
	Extras      json.RawMessage `json:"extras"`
}

// extras decodes the node's extras when they form a JSON object. The glTF
// schema allows extras of any type; string or array extras carry no usable
// attributes and degrade to no metadata rather than failing the load.
func (n *docNode) extras() map[string]any {
	if len(n.Extras) == 0 {
		return nil
	}
	var bag map[string]any
	if err := json.Unmarshal(n.Extras, &bag); err != nil {
		return nil
	}
	return bag
}

type docMesh struct {
	Name       string         `json:"name"`
	Primitives []docPrimitive `json:"primitives"`
}

type docPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    *int           `json:"indices"`
	Material   *int           `json:"material"`
}

type docMaterial struct {
	Name string  `json:"name"`
	PBR  *docPBR `json:"pbrMetallicRoughness"`
}

type docPBR struct {
	BaseColorFactor *[4]float64 `json:"baseColorFactor"`
}

type docAccessor struct {
	Count int    `json:"count"`
	Type  string `json:"type"`
}

// decodeGLB validates the container and returns the parsed JSON document.
func decodeGLB(data []byte) (*document, error) {
	if len(data) < glbHeaderLen {
		return nil, fmt.Errorf("glb: file too short (%d bytes)", len(data))
	}
	if binary.LittleEndian.Uint32(data[0:4]) != glbMagic {
		return nil, fmt.Errorf("glb: bad magic, not a binary glTF file")
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != glbVersion {
		return nil, fmt.Errorf("glb: unsupported container version %d", v)
	}
	total := binary.LittleEndian.Uint32(data[8:12])
	if int(total) > len(data) {
		return nil, fmt.Errorf("glb: truncated file: header declares %d bytes, got %d", total, len(data))
	}

	offset := glbHeaderLen
	for offset+chunkHdrLen <= len(data) {
		length := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
		chunkType := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		offset += chunkHdrLen
		if offset+length > len(data) {
			return nil, fmt.Errorf("glb: chunk overruns file")
		}
		if chunkType == chunkJSON {
			var doc document
			if err := json.Unmarshal(data[offset:offset+length], &doc); err != nil {
				return nil, fmt.Errorf("glb: invalid glTF document: %w", err)
			}
			return &doc, nil
		}
		offset += length
	}
	return nil, fmt.Errorf("glb: no JSON chunk found")
}
