// Package publish pushes trained-model artifacts to the hub. Each manifest
// item is an independent unit of work: one failure is recorded and the batch
// moves on, only the credential and repository checks abort the run.
package publish

import (
	"path/filepath"

	"github.com/TrashHobbit/modelkit/internal/config"
)

// ItemKind distinguishes single files from recursive directory uploads.
type ItemKind string

const (
	KindFile      ItemKind = "file"
	KindDirectory ItemKind = "directory"
)

// Item is one upload unit. LocalPath is absolute; RepoPath is the
// slash-separated destination inside the repository.
type Item struct {
	Kind      ItemKind
	LocalPath string
	RepoPath  string
}

// Manifest is the ordered list of items to push.
type Manifest struct {
	Items []Item
}

// ManifestFromConfig builds the manifest from the project's publish section,
// resolving local paths against the project directory. Files keep their
// config order and precede directories, matching how the artifacts were
// listed.
func ManifestFromConfig(cfg *config.Config) Manifest {
	var items []Item
	for _, rel := range cfg.Project.Publish.Files {
		items = append(items, Item{
			Kind:      KindFile,
			LocalPath: filepath.Join(cfg.ProjectDir, filepath.FromSlash(rel)),
			RepoPath:  rel,
		})
	}
	for _, rel := range cfg.Project.Publish.Directories {
		items = append(items, Item{
			Kind:      KindDirectory,
			LocalPath: filepath.Join(cfg.ProjectDir, filepath.FromSlash(rel)),
			RepoPath:  rel,
		})
	}
	return Manifest{Items: items}
}
