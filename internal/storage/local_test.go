package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestLocalSaveAndDeleteTwice(t *testing.T) {
	b, err := NewLocalBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBackend() error = %v", err)
	}
	ctx := context.Background()

	locator, err := b.Save(ctx, []byte("jpeg bytes"), "shirt.jpg", "image/jpeg")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(locator); err != nil {
		t.Fatalf("saved file missing: %v", err)
	}

	deleted, err := b.Delete(ctx, locator)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !deleted {
		t.Fatalf("first Delete() = false, want true")
	}

	deleted, err = b.Delete(ctx, locator)
	if err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
	if deleted {
		t.Fatalf("second Delete() = true, want false")
	}
}

func TestLocalDeleteUnderRemovedDir(t *testing.T) {
	root := t.TempDir()
	b, err := NewLocalBackend(root)
	if err != nil {
		t.Fatalf("NewLocalBackend() error = %v", err)
	}
	ctx := context.Background()

	locator, err := b.Save(ctx, []byte("x"), "a.png", "image/png")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := os.RemoveAll(root); err != nil {
		t.Fatalf("remove root: %v", err)
	}

	deleted, err := b.Delete(ctx, locator)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted {
		t.Fatalf("Delete() under removed dir = true, want false")
	}
}

func TestLocalSaveDatePartitioned(t *testing.T) {
	root := t.TempDir()
	b, err := NewLocalBackend(root)
	if err != nil {
		t.Fatalf("NewLocalBackend() error = %v", err)
	}

	locator, err := b.Save(context.Background(), []byte("x"), "a.png", "image/png")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	wantDir := filepath.Join(root, filepath.FromSlash(datePrefix(time.Now())))
	if filepath.Dir(locator) != wantDir {
		t.Fatalf("locator dir = %q, want %q", filepath.Dir(locator), wantDir)
	}
}

func TestConcurrentSavesDistinctLocators(t *testing.T) {
	b, err := NewLocalBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBackend() error = %v", err)
	}
	ctx := context.Background()

	const n = 16
	locators := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			loc, err := b.Save(ctx, []byte("same bytes"), "same-name.jpg", "image/jpeg")
			if err != nil {
				t.Errorf("Save(%d) error = %v", i, err)
				return
			}
			locators[i] = loc
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for i, loc := range locators {
		if loc == "" {
			continue
		}
		if seen[loc] {
			t.Fatalf("locator[%d] = %q collides with an earlier save", i, loc)
		}
		seen[loc] = true
	}
	if len(seen) != n {
		t.Fatalf("distinct locators = %d, want %d", len(seen), n)
	}
}

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"shirt.jpg", "shirt.jpg"},
		{"../../etc/passwd", "passwd"},
		{`C:\photos\cat.png`, "cat.png"},
		{"wéird namé!.png", "w_ird_nam__.png"},
		{"", "file"},
		{"///", "file"},
	}
	for _, tc := range cases {
		if got := sanitizeName(tc.in); got != tc.want {
			t.Fatalf("sanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestUniqueNameContainsSanitizedOriginal(t *testing.T) {
	name := uniqueName(time.Now(), "../sneaky.png")
	if !strings.HasSuffix(name, "-sneaky.png") {
		t.Fatalf("uniqueName() = %q, want suffix %q", name, "-sneaky.png")
	}
	if strings.ContainsAny(name, "/\\") {
		t.Fatalf("uniqueName() = %q contains path separators", name)
	}
}
