package sink

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/postscout/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func label(v model.Classification) *model.Classification { return &v }

func samplePosts(prefix string, n int) []model.Post {
	posts := make([]model.Post, n)
	for i := range posts {
		posts[i] = model.Post{
			Content:     prefix + " hiring post",
			URL:         model.PostBaseURL + "urn:li:activity:" + prefix + string(rune('a'+i)),
			ProfileName: "Recruiter",
			HiringPost:  label(model.Positive),
		}
	}
	return posts
}

func readRaw(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	lines, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return lines
}

func TestCSVAppend_AccumulatesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	s := NewCSVSink(path, discardLogger())
	ctx := context.Background()

	unsaved, err := s.Append(ctx, samplePosts("n", 3))
	require.NoError(t, err)
	assert.Empty(t, unsaved)

	unsaved, err = s.Append(ctx, samplePosts("m", 2))
	require.NoError(t, err)
	assert.Empty(t, unsaved)

	posts, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 5)
	assert.Equal(t, "n hiring post", posts[0].Content)
	assert.Equal(t, "m hiring post", posts[4].Content)
	assert.True(t, posts[4].IsHiring())
}

func TestCSVAppend_HeaderOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	s := NewCSVSink(path, discardLogger())

	p := samplePosts("x", 1)
	p[0].NamesClassification = label(model.Negative)
	_, err := s.Append(context.Background(), p)
	require.NoError(t, err)

	lines := readRaw(t, path)
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"content", "url", "profile_name", "hiring_post", "names_classification"}, lines[0])
	assert.Equal(t, "0", lines[1][4])
}

func TestCSVAppend_MergesNewColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	s := NewCSVSink(path, discardLogger())
	ctx := context.Background()

	first := samplePosts("a", 1)
	first[0].HiringPost = nil
	_, err := s.Append(ctx, first)
	require.NoError(t, err)

	_, err = s.Append(ctx, samplePosts("b", 1))
	require.NoError(t, err)

	lines := readRaw(t, path)
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"content", "url", "profile_name", "hiring_post"}, lines[0])
	assert.Equal(t, "", lines[1][3], "older row gets an empty cell for the new column")
	assert.Equal(t, "1", lines[2][3])
}

func TestCSVAppend_KeepsForeignColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	require.NoError(t, os.WriteFile(path, []byte("url,content,profile_name,hiring_post,note\nu1,old post,Ana,1.0,keep\n"), 0o644))

	s := NewCSVSink(path, discardLogger())
	_, err := s.Append(context.Background(), samplePosts("z", 1))
	require.NoError(t, err)

	lines := readRaw(t, path)
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"url", "content", "profile_name", "hiring_post", "note"}, lines[0])
	assert.Equal(t, "keep", lines[1][4])
	assert.Equal(t, "", lines[2][4])

	posts, err := readCSV(path)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.True(t, posts[0].IsHiring(), "float labels written by older tools still parse")
}

func TestCSVAppend_EmptyBatchIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	s := NewCSVSink(path, discardLogger())

	unsaved, err := s.Append(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, unsaved)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file should be created for an empty batch")
}

func TestCSVAppend_FailureLeavesFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	s := NewCSVSink(path, discardLogger())
	ctx := context.Background()

	_, err := s.Append(ctx, samplePosts("a", 2))
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// A malformed quote makes the existing file unreadable for the merge.
	corrupt := append(append([]byte{}, before...), []byte("\"unterminated,row\n")...)
	require.NoError(t, os.WriteFile(path, corrupt, 0o644))

	batch := samplePosts("b", 3)
	unsaved, err := s.Append(ctx, batch)
	require.ErrorIs(t, err, ErrPersist)
	assert.Equal(t, batch, unsaved)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, corrupt, after)
}

func TestCSVAppend_CancelledWhileLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	s := NewCSVSink(path, discardLogger())

	other := NewCSVSink(path, discardLogger())
	locked, err := other.lock.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer other.lock.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := samplePosts("a", 1)
	unsaved, err := s.Append(ctx, batch)
	require.ErrorIs(t, err, ErrPersist)
	assert.Equal(t, batch, unsaved)
}

func TestCSVLoad_MissingFile(t *testing.T) {
	posts, err := readCSV(filepath.Join(t.TempDir(), "absent.csv"))
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestOpen_SelectsStore(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	for _, kind := range []string{"csv", "sqlite"} {
		t.Run(kind, func(t *testing.T) {
			path := filepath.Join(dir, "posts."+kind)
			store, err := Open(kind, path, discardLogger())
			require.NoError(t, err)

			_, err = store.Append(ctx, samplePosts(kind, 2))
			require.NoError(t, err)
			require.NoError(t, store.Close())

			store, err = Open(kind, path, discardLogger())
			require.NoError(t, err)
			defer store.Close()
			got, err := store.Load(ctx)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, samplePosts(kind, 2)[0].URL, got[0].URL)
		})
	}
}

func TestNopSink(t *testing.T) {
	s := NewNopSink()
	unsaved, err := s.Append(context.Background(), samplePosts("a", 2))
	require.NoError(t, err)
	assert.Empty(t, unsaved)
	assert.NoError(t, s.Close())
}
