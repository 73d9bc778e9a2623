package main

import (
	"log/slog"

	"mercator-hq/rulec/pkg/rgl/script"
)

// newScriptFactory returns the file-backed script factory for dir, or nil
// factories when dir is empty.
func newScriptFactory(dir string) (script.Factory, *script.FileFactory, error) {
	if dir == "" {
		return nil, nil, nil
	}
	files, err := script.NewFileFactory(dir, slog.Default())
	if err != nil {
		return nil, nil, err
	}
	return files, files, nil
}

// documentPaths joins the --file and --dir flags.
func documentPaths(file, dir string) []string {
	var paths []string
	if file != "" {
		paths = append(paths, file)
	}
	if dir != "" {
		paths = append(paths, dir)
	}
	return paths
}
