package discover

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiscoverCSharpFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "Car.cs", "class Car { }")
	writeFile(t, dir, "Builders/CarBuilder.cs", "class CarBuilder { }")
	// Non-C# file should be ignored
	writeFile(t, dir, "readme.txt", "hello")
	// Generated file should be ignored
	writeFile(t, dir, "CarPath.g.cs", "partial class CarPath { }")
	// Hidden file should be ignored
	writeFile(t, dir, ".Hidden.cs", "class Hidden { }")

	entries, err := Files(context.Background(), dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(entries), Paths(entries))
	}

	// Should be sorted
	if entries[0].Path != filepath.Join("Builders", "CarBuilder.cs") {
		t.Errorf("entry 0: got %q", entries[0].Path)
	}
	if entries[1].Path != "Car.cs" {
		t.Errorf("entry 1: got %q", entries[1].Path)
	}
	if entries[1].Size != int64(len("class Car { }")) {
		t.Errorf("entry 1: size = %d", entries[1].Size)
	}
}

func TestDiscoverSkipDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "Car.cs", "class Car { }")
	writeFile(t, dir, "bin/Debug/Car.cs", "class Car { }")
	writeFile(t, dir, "obj/fixturegen/Demo.CarPath.cs", "class CarPath { }")
	writeFile(t, dir, ".vs/secret.cs", "class Secret { }")

	entries, err := Files(context.Background(), dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d: %v", len(entries), Paths(entries))
	}
	if entries[0].Path != "Car.cs" {
		t.Errorf("expected Car.cs, got %q", entries[0].Path)
	}
}

func TestDiscoverExcludePatterns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "Car.cs", "class Car { }")
	writeFile(t, dir, "Legacy/Old.cs", "class Old { }")
	writeFile(t, dir, "Tests/CarTests.cs", "class CarTests { }")
	writeFile(t, dir, "Tests/CarTests.Designer.cs", "class Designer { }")

	entries, err := Files(context.Background(), dir, Options{Exclude: []string{"Legacy/", "*.Designer.cs"}})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	got := strings.Join(Paths(entries), ",")
	want := strings.Join([]string{"Car.cs", filepath.Join("Tests", "CarTests.cs")}, ",")
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestDiscoverGitignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, ".gitignore", "Scratch.cs\n")
	writeFile(t, dir, "Car.cs", "class Car { }")
	writeFile(t, dir, "Scratch.cs", "class Scratch { }")

	entries, err := Files(context.Background(), dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "Car.cs" {
		t.Fatalf("expected only Car.cs, got %v", Paths(entries))
	}
}

func TestDiscoverMaxFileSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "Small.cs", "class S { }")
	writeFile(t, dir, "Large.cs", "class L { "+strings.Repeat("int x; ", 100)+"}")

	entries, err := Files(context.Background(), dir, Options{MaxFileSize: 100})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "Small.cs" {
		t.Fatalf("expected only Small.cs, got %v", Paths(entries))
	}
}

func TestDiscoverSymlinksSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "Real.cs", "class Real { }")

	// Create symlink
	err := os.Symlink(filepath.Join(dir, "Real.cs"), filepath.Join(dir, "Link.cs"))
	if err != nil {
		t.Skip("symlinks not supported")
	}

	entries, err := Files(context.Background(), dir, Options{})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry (no symlink), got %d", len(entries))
	}
	if entries[0].Path != "Real.cs" {
		t.Errorf("expected Real.cs, got %q", entries[0].Path)
	}
}

func TestDiscoverCancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "Car.cs", "class Car { }")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Files(ctx, dir, Options{}); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
