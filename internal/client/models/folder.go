package models

import (
	"sort"

	"github.com/google/uuid"
)

// Folder is one node of the folder hierarchy. Folders are stored flat and
// linked only through ParentID.
type Folder struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	PermissionType PermissionLevel `json:"permission_type"`
	Shared         bool            `json:"shared"`
	ParentID       *uuid.UUID      `json:"folder_parent_id,omitempty"`
}

// FolderTree is an index over a flat folder slice. Nodes live in an arena
// and edges are kept as arena offsets, so no node points to another.
type FolderTree struct {
	nodes    []Folder
	index    map[uuid.UUID]int
	children map[uuid.UUID][]int
	roots    []int
}

// BuildFolderTree indexes folders. Folders whose parent is not in the slice
// are treated as roots. Siblings are ordered by name.
func BuildFolderTree(folders []Folder) *FolderTree {
	t := &FolderTree{
		nodes:    append([]Folder(nil), folders...),
		index:    make(map[uuid.UUID]int, len(folders)),
		children: make(map[uuid.UUID][]int),
	}
	for i, f := range t.nodes {
		t.index[f.ID] = i
	}
	for i, f := range t.nodes {
		if f.ParentID != nil {
			if _, ok := t.index[*f.ParentID]; ok {
				t.children[*f.ParentID] = append(t.children[*f.ParentID], i)
				continue
			}
		}
		t.roots = append(t.roots, i)
	}

	byName := func(ix []int) {
		sort.SliceStable(ix, func(a, b int) bool { return t.nodes[ix[a]].Name < t.nodes[ix[b]].Name })
	}
	byName(t.roots)
	for _, ix := range t.children {
		byName(ix)
	}
	return t
}

func (t *FolderTree) collect(ix []int) []Folder {
	out := make([]Folder, 0, len(ix))
	for _, i := range ix {
		out = append(out, t.nodes[i])
	}
	return out
}

func (t *FolderTree) Roots() []Folder {
	return t.collect(t.roots)
}

func (t *FolderTree) Children(id uuid.UUID) []Folder {
	return t.collect(t.children[id])
}

func (t *FolderTree) Get(id uuid.UUID) (Folder, bool) {
	i, ok := t.index[id]
	if !ok {
		return Folder{}, false
	}
	return t.nodes[i], true
}

// Path returns the folder names from the root down to id. The walk stops
// if it revisits a node.
func (t *FolderTree) Path(id uuid.UUID) []string {
	var names []string
	seen := map[uuid.UUID]struct{}{}
	cur, ok := t.Get(id)
	for ok {
		if _, dup := seen[cur.ID]; dup {
			break
		}
		seen[cur.ID] = struct{}{}
		names = append([]string{cur.Name}, names...)
		if cur.ParentID == nil {
			break
		}
		cur, ok = t.Get(*cur.ParentID)
	}
	return names
}

// Walk visits folders depth-first, roots first.
func (t *FolderTree) Walk(fn func(f Folder, depth int)) {
	var visit func(i, depth int)
	visit = func(i, depth int) {
		fn(t.nodes[i], depth)
		for _, c := range t.children[t.nodes[i].ID] {
			visit(c, depth+1)
		}
	}
	for _, r := range t.roots {
		visit(r, 0)
	}
}
