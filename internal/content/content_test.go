package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Vasu1712/worship-sync/internal/models"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadBuildsTreeAndIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "songs", "hymns", "amazing-grace.md"), "# Amazing Grace\nHow sweet the sound\n---\nThat saved a wretch")
	writeFile(t, filepath.Join(root, "songs", "opener.md"), "Welcome")
	writeFile(t, filepath.Join(root, "songs", "notes.txt"), "ignored")
	writeFile(t, filepath.Join(root, "verses", "john-3-16.md"), "# John 3:16\nFor God so loved")

	lib, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(lib.Items()) != 3 {
		t.Fatalf("expected 3 items, got %d", len(lib.Items()))
	}

	hymns, ok := lib.Songs.Folders["hymns"]
	if !ok || len(hymns.Files) != 1 {
		t.Fatalf("expected hymns folder with one file, got %+v", lib.Songs)
	}
	grace := hymns.Files[0]
	if grace.ID != "song-hymns-amazing-grace.md" || grace.Title != "Amazing Grace" || grace.Filename != "hymns/amazing-grace.md" {
		t.Fatalf("unexpected item %+v", grace)
	}
	if len(grace.Slides) != 2 || grace.Type != models.ContentSong {
		t.Fatalf("expected 2 song slides, got %d (%s)", len(grace.Slides), grace.Type)
	}

	if len(lib.Songs.Files) != 1 || lib.Songs.Files[0].Title != "Untitled" {
		t.Fatalf("expected untitled top-level song, got %+v", lib.Songs.Files)
	}

	verse, ok := lib.Find("verse-john-3-16.md")
	if !ok || verse.Type != models.ContentVerse {
		t.Fatalf("verse lookup failed: %+v", verse)
	}
	if _, ok := lib.Find("song-missing.md"); ok {
		t.Fatalf("unexpected item for missing id")
	}
}

func TestLoadMissingSections(t *testing.T) {
	lib, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if lib.Songs == nil || lib.Verses == nil || lib.CustomTemplates == nil {
		t.Fatalf("expected empty trees for missing sections")
	}
	if len(lib.Items()) != 0 {
		t.Fatalf("expected no items")
	}
}
