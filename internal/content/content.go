// Package content loads the markdown library: songs, verses and custom
// templates, each a tree of .md files compiled into slides.
package content

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Vasu1712/worship-sync/internal/markdown"
	"github.com/Vasu1712/worship-sync/internal/models"
)

// Library folders and the content type of the files in each.
var sections = []struct {
	dir string
	typ models.ContentType
}{
	{"songs", models.ContentSong},
	{"verses", models.ContentVerse},
	{"custom-templates", models.ContentCustomTemplate},
}

// Folder is one directory level of a library section.
type Folder struct {
	Files   []models.ContentItem `json:"files,omitempty"`
	Folders map[string]*Folder   `json:"folders,omitempty"`
}

func newFolder() *Folder {
	return &Folder{Folders: make(map[string]*Folder)}
}

// Library is the loaded content, as trees for browsing and by id for lookup.
type Library struct {
	Songs           *Folder `json:"songs"`
	Verses          *Folder `json:"verses"`
	CustomTemplates *Folder `json:"custom-templates"`

	items []models.ContentItem
	byID  map[string]int
}

// Load reads every section under root. Missing sections are empty.
func Load(root string) (*Library, error) {
	lib := &Library{byID: make(map[string]int)}
	for _, sec := range sections {
		tree, err := lib.loadSection(filepath.Join(root, sec.dir), sec.typ)
		if err != nil {
			return nil, err
		}
		switch sec.typ {
		case models.ContentSong:
			lib.Songs = tree
		case models.ContentVerse:
			lib.Verses = tree
		case models.ContentCustomTemplate:
			lib.CustomTemplates = tree
		}
	}
	log.Printf("[Content] Loaded %d items from %s", len(lib.items), root)
	return lib, nil
}

func (l *Library) loadSection(dir string, typ models.ContentType) (*Folder, error) {
	tree := newFolder()
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return tree, nil
	}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		item := NewItem(typ, rel, string(raw))

		folder := tree
		parts := strings.Split(rel, "/")
		for _, part := range parts[:len(parts)-1] {
			sub, ok := folder.Folders[part]
			if !ok {
				sub = newFolder()
				folder.Folders[part] = sub
			}
			folder = sub
		}
		folder.Files = append(folder.Files, item)
		l.byID[item.ID] = len(l.items)
		l.items = append(l.items, item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", dir, err)
	}
	return tree, nil
}

// NewItem compiles one markdown file. rel is the slash-separated path below
// its section folder.
func NewItem(typ models.ContentType, rel, raw string) models.ContentItem {
	return models.ContentItem{
		ID:       string(typ) + "-" + strings.ReplaceAll(rel, "/", "-"),
		Title:    markdown.ExtractTitle(raw),
		Type:     typ,
		Filename: rel,
		Content:  raw,
		Slides:   markdown.Compile(raw),
	}
}

// Find returns the item with the given id.
func (l *Library) Find(id string) (models.ContentItem, bool) {
	i, ok := l.byID[id]
	if !ok {
		return models.ContentItem{}, false
	}
	return l.items[i], true
}

// Items returns every item in load order.
func (l *Library) Items() []models.ContentItem {
	out := make([]models.ContentItem, len(l.items))
	copy(out, l.items)
	return out
}
