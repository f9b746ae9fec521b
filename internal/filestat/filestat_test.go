package filestat

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func TestStatFileCachesFirstRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "old.txt")
	then := time.Now().Add(-time.Minute).Truncate(time.Second)
	writeFile(t, path, "old", then)

	src := NewSource(MTime)
	st, err := src.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Time != then.Unix() || st.Size != 3 {
		t.Fatalf("stat = %+v, want time %d size 3", st, then.Unix())
	}

	// Later changes on disk are not observed.
	writeFile(t, path, "changed", time.Now())
	secs, err := src.Seconds(path)
	if err != nil {
		t.Fatalf("seconds: %v", err)
	}
	size, err := src.Bytes(path)
	if err != nil {
		t.Fatalf("bytes: %v", err)
	}
	if secs != then.Unix() || size != 3 {
		t.Fatalf("cached view = %d/%d, want %d/3", secs, size, then.Unix())
	}
	if src.Len() != 1 {
		t.Fatalf("cache len = %d, want 1", src.Len())
	}
}

func TestStatMissingIsStatError(t *testing.T) {
	src := NewSource(MTime)
	_, err := src.Stat(filepath.Join(t.TempDir(), "missing"))
	var se *StatError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want to wrap ErrNotExist", err)
	}
}

func TestATime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a")
	writeFile(t, path, "x", time.Now())
	atime := time.Now().Add(-2 * time.Hour).Truncate(time.Second)
	if err := os.Chtimes(path, atime, time.Now()); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	secs, err := NewSource(ATime).Seconds(path)
	if errors.Is(err, ErrUnsupportedAgeType) {
		t.Skip("atime not supported")
	}
	if err != nil {
		t.Fatalf("seconds: %v", err)
	}
	if secs != atime.Unix() {
		t.Fatalf("atime = %d, want %d", secs, atime.Unix())
	}
}

func makeFolder(t *testing.T, base string, files map[string]time.Time) string {
	t.Helper()
	for rel, mtime := range files {
		writeFile(t, filepath.Join(base, rel), "12345", mtime)
	}
	return base
}

func TestFolderSources(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	young := now.Add(-time.Hour)
	old := now.Add(-48 * time.Hour)
	mid := now.Add(-24 * time.Hour)

	dir := t.TempDir()
	folder := makeFolder(t, filepath.Join(dir, "backup"), map[string]time.Time{
		"a.txt":         young,
		"sub/b.txt":     old,
		"sub/deep/c.db": mid,
	})
	dirTime := now.Add(-72 * time.Hour)
	if err := os.Chtimes(folder, dirTime, dirTime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	cases := []struct {
		src  FolderSource
		want time.Time
	}{
		{FolderSource{Kind: YoungestFile}, young},
		{FolderSource{Kind: OldestFile}, old},
		{FolderSource{Kind: FolderPath, RelPath: "sub/deep/c.db"}, mid},
		{FolderSource{Kind: FolderOwn}, dirTime},
	}
	for _, tc := range cases {
		st, err := NewSource(MTime).WithFolderMode(tc.src).Stat(folder)
		if err != nil {
			t.Fatalf("%s: stat: %v", tc.src, err)
		}
		if st.Time != tc.want.Unix() {
			t.Fatalf("%s: time = %d, want %d", tc.src, st.Time, tc.want.Unix())
		}
		if st.Size != 15 || st.Files != 3 || st.Empty {
			t.Fatalf("%s: stat = %+v, want size 15 over 3 files", tc.src, st)
		}
	}
}

func TestFolderWithoutFilesIsEmpty(t *testing.T) {
	dir := t.TempDir()
	folder := filepath.Join(dir, "empty", "nested")
	if err := os.MkdirAll(folder, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	st, err := NewSource(MTime).WithFolderMode(DefaultFolderSource).Stat(filepath.Dir(folder))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !st.Empty || st.Size != 0 {
		t.Fatalf("stat = %+v, want empty", st)
	}
}

func TestFolderPathMissing(t *testing.T) {
	dir := t.TempDir()
	folder := makeFolder(t, filepath.Join(dir, "f"), map[string]time.Time{"x": time.Now()})
	_, err := NewSource(MTime).WithFolderMode(FolderSource{Kind: FolderPath, RelPath: "stamp"}).Stat(folder)
	var se *StatError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatError", err)
	}
}

func TestParseFolderSource(t *testing.T) {
	good := map[string]FolderSource{
		"":              DefaultFolderSource,
		"folder":        {Kind: FolderOwn},
		"youngest-file": {Kind: YoungestFile},
		"oldest-file":   {Kind: OldestFile},
		"path=meta/ts":  {Kind: FolderPath, RelPath: filepath.Join("meta", "ts")},
	}
	for in, want := range good {
		got, err := ParseFolderSource(in)
		if err != nil {
			t.Fatalf("ParseFolderSource(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseFolderSource(%q) = %+v, want %+v", in, got, want)
		}
	}
	for _, in := range []string{"newest", "path=", "path=/etc/passwd", "path=../x"} {
		if _, err := ParseFolderSource(in); err == nil {
			t.Fatalf("ParseFolderSource(%q) succeeded, want error", in)
		}
	}
}

func TestParseAgeType(t *testing.T) {
	for _, a := range []AgeType{MTime, CTime, ATime, BirthTime} {
		got, err := ParseAgeType(a.String())
		if err != nil || got != a {
			t.Fatalf("ParseAgeType(%q) = %v, %v", a, got, err)
		}
	}
	if _, err := ParseAgeType("MTIME"); err == nil {
		t.Fatal("ParseAgeType(MTIME) succeeded, want error")
	}
}
