package extraction

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"
	"golang.org/x/net/context"
)

// ExtractModelBundle extracts a ZIP bundle to a temporary directory and
// locates the single GLB model inside it. Resource files (textures etc.)
// are tolerated and left in place; system files are skipped. The caller
// owns destDir and must remove it when done.
func ExtractModelBundle(archivePath string) (glbPath string, destDir string, err error) {
	destDir, err = os.MkdirTemp("", "bundle-*")
	if err != nil {
		return "", "", err
	}

	ctx := context.Background()
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		os.RemoveAll(destDir)
		return "", "", err
	}

	var glbFiles []string
	err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || shouldIgnoreFile(filepath.Base(path)) {
			return nil
		}
		reader, err := fsys.Open(path)
		if err != nil {
			return err
		}
		defer reader.Close()

		destPath := filepath.Join(destDir, path)
		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return err
		}
		outFile, err := os.Create(destPath)
		if err != nil {
			return err
		}
		defer outFile.Close()

		if _, err := io.Copy(outFile, reader); err != nil {
			return err
		}

		if strings.EqualFold(filepath.Ext(path), ".glb") {
			glbFiles = append(glbFiles, destPath)
		}
		return nil
	})
	if err != nil {
		os.RemoveAll(destDir)
		return "", "", err
	}

	switch len(glbFiles) {
	case 0:
		os.RemoveAll(destDir)
		return "", "", fmt.Errorf("no glb model file found in bundle")
	case 1:
		return glbFiles[0], destDir, nil
	default:
		os.RemoveAll(destDir)
		return "", "", fmt.Errorf("multiple glb model files found in bundle")
	}
}

// shouldIgnoreFile filters out system files and archive junk.
func shouldIgnoreFile(filename string) bool {
	if strings.HasPrefix(filename, "._") {
		return true
	}
	if strings.HasPrefix(filename, ".") {
		return true
	}
	if strings.ToLower(filename) == "thumbs.db" {
		return true
	}
	if filename == "" || strings.HasSuffix(filename, "/") {
		return true
	}
	return false
}
