package compressor

import (
	"os/exec"
	"strings"
)

// CompressedSuffix replaces the plain .glb extension on compressed keys
// and output files.
const CompressedSuffix = ".draco.glb"

// Tool invokes the external gltfpack CLI to rewrite a GLB into a smaller
// mesh-compressed encoding.
type Tool struct {
	Path string

	// run executes the encoder; replaced in tests.
	run func(name string, args ...string) error
}

// NewTool returns a Tool bound to the given gltfpack binary.
func NewTool(path string) *Tool {
	if path == "" {
		path = "gltfpack"
	}
	return &Tool{
		Path: path,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Compress rewrites the input GLB and returns the path of the compressed
// output file.
func (t *Tool) Compress(inputPath string) (string, error) {
	outputPath := CompressedKey(inputPath)
	if err := t.run(t.Path, "-i", inputPath, "-o", outputPath, "-cc"); err != nil {
		return "", err
	}
	return outputPath, nil
}

// CompressedKey derives the storage key (or file path) of the compressed
// variant of a GLB key.
func CompressedKey(key string) string {
	return strings.TrimSuffix(key, ".glb") + CompressedSuffix
}
