package utils

import (
	"fmt"
	"path/filepath"
	"strings"
)

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// ReplaceExt swaps the extension of path for ext, which includes the dot.
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// OutputPaths derives the assembly and object paths for the source file src.
// A non-empty out names the final artifact: the object file, or the assembly
// when asmOnly is set, in which case objPath is empty.
func OutputPaths(src, out string, asmOnly bool) (asmPath, objPath string, err error) {
	switch {
	case asmOnly && out != "":
		asmPath = out
	case asmOnly:
		asmPath = ReplaceExt(src, ".asm")
	case out != "":
		objPath = out
		asmPath = ReplaceExt(out, ".asm")
	default:
		objPath = ReplaceExt(src, ".o")
		asmPath = ReplaceExt(src, ".asm")
	}

	if filepath.Clean(asmPath) == filepath.Clean(src) || (objPath != "" && filepath.Clean(objPath) == filepath.Clean(src)) {
		return "", "", fmt.Errorf("output would overwrite source %q", src)
	}
	if objPath != "" && filepath.Clean(asmPath) == filepath.Clean(objPath) {
		return "", "", fmt.Errorf("object path %q collides with intermediate assembly", objPath)
	}
	return asmPath, objPath, nil
}
