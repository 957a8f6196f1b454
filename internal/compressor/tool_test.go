package compressor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressedKey(t *testing.T) {
	assert.Equal(t, "abc-model.draco.glb", CompressedKey("abc-model.glb"))
	assert.Equal(t, "noext.draco.glb", CompressedKey("noext"))
}

func TestCompressInvokesEncoder(t *testing.T) {
	var gotName string
	var gotArgs []string
	tool := NewTool("/opt/bin/gltfpack")
	tool.run = func(name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	}

	out, err := tool.Compress("/tmp/model.glb")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/model.draco.glb", out)
	assert.Equal(t, "/opt/bin/gltfpack", gotName)
	assert.Equal(t, []string{"-i", "/tmp/model.glb", "-o", "/tmp/model.draco.glb", "-cc"}, gotArgs)
}

func TestCompressPropagatesEncoderFailure(t *testing.T) {
	tool := NewTool("")
	tool.run = func(name string, args ...string) error {
		return fmt.Errorf("exit status 1")
	}

	_, err := tool.Compress("/tmp/model.glb")
	require.Error(t, err)
}

func TestNewToolDefaultsPath(t *testing.T) {
	assert.Equal(t, "gltfpack", NewTool("").Path)
	assert.Equal(t, "custom", NewTool("custom").Path)
}
