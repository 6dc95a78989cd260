package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deskbox-sh/deskbox/pkg/sandbox/sandboxtest"
)

func TestFsRead_SavesToLocalPath(t *testing.T) {
	setupStdoutCapture(t)

	fake := &sandboxtest.Fake{}
	fake.PutFile("/workspace/report.txt", []byte("quarterly numbers"))
	out := filepath.Join(t.TempDir(), "report.txt")

	f := FsCmd{sb: fake}
	_ = f.Read(context.Background(), "/workspace/report.txt", out)

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("local file not written: %v", err)
	}
	if string(got) != "quarterly numbers" {
		t.Fatalf("content mismatch: %q", got)
	}
}

func TestFsRead_MissingFilePrintsError(t *testing.T) {
	setupStdoutCapture(t)

	f := FsCmd{sb: &sandboxtest.Fake{}}
	_ = f.Read(context.Background(), "/nope", "")

	if !strings.Contains(outBuf.String(), "Failed to read /nope") {
		t.Fatalf("expected error message, got: %s", outBuf.String())
	}
}

func TestFsWriteThenList(t *testing.T) {
	setupStdoutCapture(t)

	fake := &sandboxtest.Fake{}
	f := FsCmd{sb: fake}
	_ = f.Write(context.Background(), "/workspace/notes.md", []byte("hello"))
	_ = f.List(context.Background(), "/workspace")

	out := outBuf.String()
	if !strings.Contains(out, "Wrote /workspace/notes.md (5 bytes)") {
		t.Fatalf("expected write confirmation, got: %s", out)
	}
	if !strings.Contains(out, "notes.md") {
		t.Fatalf("expected listing to include the file, got: %s", out)
	}
}

func TestFsList_EmptyDirectory(t *testing.T) {
	setupStdoutCapture(t)

	f := FsCmd{sb: &sandboxtest.Fake{}}
	_ = f.List(context.Background(), "/workspace")

	if !strings.Contains(outBuf.String(), "/workspace is empty") {
		t.Fatalf("expected empty message, got: %s", outBuf.String())
	}
}

func TestFsMoveAndDelete(t *testing.T) {
	setupStdoutCapture(t)

	fake := &sandboxtest.Fake{}
	fake.PutFile("/a.txt", []byte("x"))

	f := FsCmd{sb: fake}
	_ = f.Move(context.Background(), "/a.txt", "/b.txt")
	if fake.HasFile("/a.txt") || !fake.HasFile("/b.txt") {
		t.Fatal("move did not relocate the file")
	}

	_ = f.Delete(context.Background(), "/b.txt")
	if fake.HasFile("/b.txt") {
		t.Fatal("delete left the file behind")
	}

	out := outBuf.String()
	if !strings.Contains(out, "Moved /a.txt to /b.txt") || !strings.Contains(out, "Deleted /b.txt") {
		t.Fatalf("expected move and delete confirmations, got: %s", out)
	}
}

func TestFsMakeDir(t *testing.T) {
	setupStdoutCapture(t)

	f := FsCmd{sb: &sandboxtest.Fake{}}
	_ = f.MakeDir(context.Background(), "/workspace/data")

	if !strings.Contains(outBuf.String(), "Created /workspace/data") {
		t.Fatalf("expected confirmation, got: %s", outBuf.String())
	}
}
