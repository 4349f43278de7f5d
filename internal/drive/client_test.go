package drive

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/api/drive/v3"

	"github.com/driveagent/driveagent/pkg/models"
)

func folder(id, name string) *drive.File {
	return &drive.File{Id: id, Name: name, MimeType: models.MimeGoogleFolder}
}

func plain(id, name string) *drive.File {
	return &drive.File{Id: id, Name: name, MimeType: "text/plain", ModifiedTime: "2026-01-01T00:00:00Z"}
}

// treeClient builds a Client whose traversal runs over a scripted tree of
// folder id → children, with optional per-folder listing errors.
func treeClient(tree map[string][]*drive.File, fail map[string]error, maxFolders int) *Client {
	c := &Client{maxFolders: maxFolders}
	c.list = func(_ context.Context, folderID string) ([]*drive.File, error) {
		if err, ok := fail[folderID]; ok {
			return nil, err
		}
		return tree[folderID], nil
	}
	return c
}

func idsOf(files []models.DriveFile) map[string]string {
	out := make(map[string]string, len(files))
	for _, f := range files {
		out[f.ID] = f.FolderPath
	}
	return out
}

func TestListTreeWalksNestedFolders(t *testing.T) {
	c := treeClient(map[string][]*drive.File{
		"root": {plain("f1", "readme"), folder("a", "finance")},
		"a":    {plain("f2", "budget"), folder("b", "2026")},
		"b":    {plain("f3", "q1")},
	}, nil, DefaultMaxFolders)

	files, err := c.ListTree(context.Background(), "root")
	if err != nil {
		t.Fatalf("ListTree: %v", err)
	}
	got := idsOf(files)
	want := map[string]string{"f1": "", "f2": "finance", "f3": "finance/2026"}
	if len(got) != len(want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
	for id, path := range want {
		if got[id] != path {
			t.Errorf("file %s folder path = %q, want %q", id, got[id], path)
		}
	}
}

func TestListTreeCycleSafe(t *testing.T) {
	// a and b reference each other; the visited set must break the loop.
	c := treeClient(map[string][]*drive.File{
		"root": {folder("a", "left")},
		"a":    {folder("b", "right"), plain("f1", "one")},
		"b":    {folder("a", "left"), plain("f2", "two")},
	}, nil, DefaultMaxFolders)

	files, err := c.ListTree(context.Background(), "root")
	if err != nil {
		t.Fatalf("ListTree: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("cycle traversal listed %d files, want 2", len(files))
	}
}

func TestListTreeFolderBoundReturnsPartial(t *testing.T) {
	// root plus three subfolders; a bound of 2 visits root and one child.
	c := treeClient(map[string][]*drive.File{
		"root": {folder("a", "a"), folder("b", "b"), folder("c", "c"), plain("f0", "top")},
		"a":    {plain("fa", "in-a")},
		"b":    {plain("fb", "in-b")},
		"c":    {plain("fc", "in-c")},
	}, nil, 2)

	files, err := c.ListTree(context.Background(), "root")
	if err != nil {
		t.Fatalf("ListTree: %v", err)
	}
	got := idsOf(files)
	if _, ok := got["f0"]; !ok {
		t.Error("root-level file missing from partial listing")
	}
	if len(got) != 2 {
		t.Errorf("partial listing has %d files, want 2 (root + one visited folder)", len(got))
	}
}

func TestListTreeSkipsFailedFolder(t *testing.T) {
	c := treeClient(map[string][]*drive.File{
		"root": {folder("a", "good"), folder("bad", "broken")},
		"a":    {plain("f1", "one")},
	}, map[string]error{"bad": errors.New("listing failed")}, DefaultMaxFolders)

	files, err := c.ListTree(context.Background(), "root")
	if err != nil {
		t.Fatalf("ListTree: %v", err)
	}
	if len(files) != 1 || files[0].ID != "f1" {
		t.Errorf("files = %v, want only f1 from the healthy branch", files)
	}
}

func TestListTreeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{maxFolders: DefaultMaxFolders}
	c.list = func(ctx context.Context, folderID string) ([]*drive.File, error) {
		cancel()
		return nil, ctx.Err()
	}

	if _, err := c.ListTree(ctx, "root"); !errors.Is(err, context.Canceled) {
		t.Errorf("ListTree error = %v, want context.Canceled", err)
	}
}

func TestJoinPath(t *testing.T) {
	cases := []struct{ parent, name, want string }{
		{"", "finance", "finance"},
		{"finance", "2026", "finance/2026"},
		{"finance/2026", "q1", "finance/2026/q1"},
	}
	for _, c := range cases {
		if got := joinPath(c.parent, c.name); got != c.want {
			t.Errorf("joinPath(%q, %q) = %q, want %q", c.parent, c.name, got, c.want)
		}
	}
}

func TestWithMaxFolders(t *testing.T) {
	c := &Client{maxFolders: DefaultMaxFolders}

	WithMaxFolders(250)(c)
	if c.maxFolders != 250 {
		t.Errorf("maxFolders = %d, want 250", c.maxFolders)
	}

	// Non-positive values keep the current bound.
	WithMaxFolders(0)(c)
	if c.maxFolders != 250 {
		t.Errorf("maxFolders after zero = %d, want unchanged", c.maxFolders)
	}
}
