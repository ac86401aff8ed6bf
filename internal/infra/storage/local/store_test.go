package local

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"testing"
)

func TestStore_SaveOpenDelete(t *testing.T) {
	store, err := NewStore(t.TempDir(), "/api/v1/messages/images/")
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	ctx := context.Background()

	url, err := store.Save(ctx, "photo.jpg", []byte("jpeg bytes"))
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if url != "/api/v1/messages/images/photo.jpg" {
		t.Errorf("Save() url = %q", url)
	}

	obj, err := store.Open(ctx, "photo.jpg")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	data, err := io.ReadAll(obj)
	obj.Close()
	if err != nil || string(data) != "jpeg bytes" {
		t.Errorf("Open() read %q, %v", data, err)
	}

	if err := store.Delete(ctx, "photo.jpg"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := store.Open(ctx, "photo.jpg"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open(deleted) error = %v, want fs.ErrNotExist", err)
	}

	// Deleting a missing object is not an error.
	if err := store.Delete(ctx, "photo.jpg"); err != nil {
		t.Errorf("Delete(missing) error = %v", err)
	}
}

func TestStore_RejectsTraversal(t *testing.T) {
	store, err := NewStore(t.TempDir(), "/imgs")
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	ctx := context.Background()

	for _, name := range []string{"../escape.jpg", "a/b.jpg", "", "  "} {
		if _, err := store.Save(ctx, name, []byte("x")); err == nil {
			t.Errorf("Save(%q) accepted a non-basename object name", name)
		}
		if _, err := store.Open(ctx, name); err == nil {
			t.Errorf("Open(%q) accepted a non-basename object name", name)
		}
	}
}
