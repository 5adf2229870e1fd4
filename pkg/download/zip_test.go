package download

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	zlerrors "github.com/cperrin88/zipline/pkg/errors"
	mock_http "github.com/cperrin88/zipline/pkg/http/mocks"
	"github.com/cperrin88/zipline/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var members = map[string]string{
	"a.txt": "alpha",
	"b.txt": "bravo",
	"c.txt": "charlie",
}

func enumeratedZip(t *testing.T, opts Options, files map[string]string) *Batch {
	t.Helper()
	ctrl := gomock.NewController(t)
	fetcher := mock_http.NewMockFetcher(ctrl)
	fetcher.EXPECT().Download(gomock.Any(), gomock.Any(), filepath.Join(opts.TmpDir, opts.Filename)).
		DoAndReturn(writeArchive(testutil.BuildZip(t, files)))

	b, err := NewZIP(opts, fetcher)
	require.NoError(t, err)
	require.NoError(t, b.Enumerate(context.Background()))
	return b
}

func TestZip_UnzipAll_InMemory(t *testing.T) {
	opts := zipOptions(t)
	opts.Concurrency = 2
	opts.Inflate = false
	b := enumeratedZip(t, opts, members)

	h, err := b.Archive()
	require.NoError(t, err)
	before := h.Len()

	var mu sync.Mutex
	var contents []string
	err = b.UnzipAll(context.Background(), func(_ context.Context, it *Item, res Result) error {
		assert.Empty(t, res.Path)
		assert.Equal(t, StateDecoded, it.State())
		mu.Lock()
		contents = append(contents, res.Content)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	sort.Strings(contents)
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, contents)
	assert.Equal(t, before, h.Len())
	assert.Empty(t, listDir(t, opts.TmpDir, "bundle.zip"))
}

func TestZip_UnzipAll_Inflate(t *testing.T) {
	opts := zipOptions(t)
	opts.Inflate = true
	b := enumeratedZip(t, opts, map[string]string{"a.txt": "alpha", "nested/b.csv": "bravo"})

	require.NoError(t, b.UnzipAll(context.Background(), nil))

	content, err := os.ReadFile(filepath.Join(opts.TmpDir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(content))

	it, ok := b.Item("b.csv")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(opts.TmpDir, "b.csv"), it.Path())
	assert.FileExists(t, it.Path())
}

func TestZip_Cleanup(t *testing.T) {
	tests := []struct {
		name        string
		inflate     bool
		keep        bool
		wantArchive bool
	}{
		{name: "inflated files and archive removed", inflate: true},
		{name: "in-memory items released", inflate: false},
		{name: "keep leaves archive", inflate: true, keep: true, wantArchive: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := zipOptions(t)
			opts.Inflate = tt.inflate
			b := enumeratedZip(t, opts, members)
			require.NoError(t, b.UnzipAll(context.Background(), nil))
			items := b.Files()

			require.NoError(t, b.Cleanup(context.Background(), tt.keep))

			assert.Empty(t, b.Files())
			_, ok := b.Item("a.txt")
			assert.False(t, ok)
			if tt.wantArchive {
				assert.FileExists(t, b.ArchivePath())
				assert.True(t, b.IsDownloaded())
			} else {
				assert.NoFileExists(t, b.ArchivePath())
				assert.False(t, b.IsDownloaded())
			}
			assert.Empty(t, listDir(t, opts.TmpDir, "bundle.zip"))

			for _, it := range items {
				assert.Equal(t, StateReleased, it.State())
				_, err := it.Unzip(context.Background())
				assert.ErrorIs(t, err, zlerrors.ErrReleased)
			}

			_, err := b.Archive()
			assert.ErrorIs(t, err, zlerrors.ErrHandleNotFound)

			// A second cleanup is a no-op.
			require.NoError(t, b.Cleanup(context.Background(), tt.keep))
		})
	}
}

func TestZip_Cleanup_RemovesMember(t *testing.T) {
	opts := zipOptions(t)
	b := enumeratedZip(t, opts, members)

	it, ok := b.Item("b.txt")
	require.True(t, ok)
	h, err := b.Archive()
	require.NoError(t, err)

	require.NoError(t, it.Cleanup(context.Background()))
	assert.False(t, h.Has("b.txt"))
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, StateReleased, it.State())
	require.NoError(t, it.Cleanup(context.Background()))
}

func TestZip_Acquire(t *testing.T) {
	t.Run("already downloaded skips the fetch", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fetcher := mock_http.NewMockFetcher(ctrl)

		opts := zipOptions(t)
		opts.Downloaded = true
		require.NoError(t, os.WriteFile(filepath.Join(opts.TmpDir, opts.Filename), testutil.BuildZip(t, members), 0o644))

		b, err := NewZIP(opts, fetcher)
		require.NoError(t, err)
		require.NoError(t, b.Enumerate(context.Background()))
		assert.Equal(t, 3, b.Len())
	})

	t.Run("transport failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fetcher := mock_http.NewMockFetcher(ctrl)
		fetcher.EXPECT().Download(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(zlerrors.Tag(zlerrors.ErrTransport, errors.New("reset"), "download"))

		b, err := NewZIP(zipOptions(t), fetcher)
		require.NoError(t, err)
		err = b.Enumerate(context.Background())
		assert.ErrorIs(t, err, zlerrors.ErrTransport)
		assert.False(t, b.IsDownloaded())
		assert.Empty(t, b.Files())
	})

	t.Run("second acquire reuses the archive", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fetcher := mock_http.NewMockFetcher(ctrl)
		fetcher.EXPECT().Download(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(writeArchive(testutil.BuildZip(t, members))).Times(1)

		b, err := NewZIP(zipOptions(t), fetcher)
		require.NoError(t, err)
		require.NoError(t, b.Acquire(context.Background()))
		require.NoError(t, b.Acquire(context.Background()))
		assert.True(t, b.IsDownloaded())
	})
}

func TestZip_Enumerate_NotAnArchive(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock_http.NewMockFetcher(ctrl)
	fetcher.EXPECT().Download(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(writeArchive([]byte("<html>not found</html>")))

	b, err := NewZIP(zipOptions(t), fetcher)
	require.NoError(t, err)
	err = b.Enumerate(context.Background())
	assert.ErrorIs(t, err, zlerrors.ErrArchiveFormat)
}

func TestZip_Unzip_ByName(t *testing.T) {
	opts := zipOptions(t)
	b := enumeratedZip(t, opts, map[string]string{"dir/report.csv": "x,y"})

	res, err := b.Unzip(context.Background(), "report.csv")
	require.NoError(t, err)
	assert.Equal(t, "x,y", res.Content)

	res, err = b.Unzip(context.Background(), "other.csv")
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestZip_PostHandlerErrorsAreCollected(t *testing.T) {
	opts := zipOptions(t)
	opts.Concurrency = 3
	b := enumeratedZip(t, opts, members)

	failB := errors.New("b failed")
	failC := errors.New("c failed")
	var seen sync.Map
	err := b.UnzipAll(context.Background(), func(_ context.Context, it *Item, _ Result) error {
		seen.Store(it.Name(), true)
		switch it.Name() {
		case "b.txt":
			return failB
		case "c.txt":
			return failC
		}
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, failB)
	assert.ErrorIs(t, err, failC)
	for name := range members {
		_, ok := seen.Load(name)
		assert.True(t, ok, name)
	}
}

func TestStream_Enumerate(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mock_http.NewMockFetcher(ctrl)
	opts := zipOptions(t)
	opts.Inflate = true
	fetcher.EXPECT().Download(gomock.Any(), "https://example.com/exports/bundle.zip", filepath.Join(opts.TmpDir, "bundle.zip")).
		DoAndReturn(writeArchive(testutil.BuildZip(t, members)))

	b, err := NewStream(opts, fetcher)
	require.NoError(t, err)
	require.NoError(t, b.Enumerate(context.Background()))
	assert.True(t, b.IsDownloaded())

	h, err := b.Archive()
	require.NoError(t, err)
	assert.True(t, h.Streaming())

	var mu sync.Mutex
	got := map[string]string{}
	require.NoError(t, b.UnzipAll(context.Background(), func(_ context.Context, it *Item, res Result) error {
		mu.Lock()
		defer mu.Unlock()
		got[it.Name()] = res.Content
		return nil
	}))
	assert.Equal(t, members, got)
	// Streamed members are never written out, even with inflate set.
	assert.Empty(t, listDir(t, opts.TmpDir, "bundle.zip"))

	require.NoError(t, b.Cleanup(context.Background(), false))
	assert.FileExists(t, b.ArchivePath())
	assert.Empty(t, b.Files())
}

func TestStream_FetchOneUnsupported(t *testing.T) {
	b, err := NewStream(Options{TmpDir: t.TempDir(), Filename: "x.zip", Downloaded: true}, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, b.FetchOne(context.Background(), nil), zlerrors.ErrUnsupportedOperation)
}

func enumeratedArchive(t *testing.T, stream bool, opts Options, data []byte) *Batch {
	t.Helper()
	ctrl := gomock.NewController(t)
	fetcher := mock_http.NewMockFetcher(ctrl)
	fetcher.EXPECT().Download(gomock.Any(), gomock.Any(), filepath.Join(opts.TmpDir, opts.Filename)).
		DoAndReturn(writeArchive(data))

	newBatch := NewZIP
	if stream {
		newBatch = NewStream
	}
	b, err := newBatch(opts, fetcher)
	require.NoError(t, err)
	require.NoError(t, b.Enumerate(context.Background()))
	return b
}

func TestArchiveBatch_FollowsArchiveOrder(t *testing.T) {
	data := testutil.BuildZipEntries(t,
		testutil.Entry{Name: "z/report.csv", Content: "zulu"},
		testutil.Entry{Name: "a/report.csv", Content: "alpha"},
		testutil.Entry{Name: "m.txt", Content: "mike"},
	)

	for _, stream := range []bool{false, true} {
		name := "zip"
		if stream {
			name = "stream"
		}
		t.Run(name, func(t *testing.T) {
			b := enumeratedArchive(t, stream, zipOptions(t), data)
			assert.Equal(t, []string{"z/report.csv", "a/report.csv", "m.txt"}, names(b.Files()))

			it, ok := b.Item("report.csv")
			require.True(t, ok)
			assert.Equal(t, "z/report.csv", it.Name())

			res, err := b.Unzip(context.Background(), "report.csv")
			require.NoError(t, err)
			assert.Equal(t, "zulu", res.Content)
		})

		t.Run(name+"/limit", func(t *testing.T) {
			opts := zipOptions(t)
			opts.Limit = 1
			b := enumeratedArchive(t, stream, opts, data)
			assert.Equal(t, []string{"z/report.csv"}, names(b.Files()))
		})
	}
}

func TestArchiveBatch_EmptyArchive(t *testing.T) {
	for _, stream := range []bool{false, true} {
		b := enumeratedArchive(t, stream, zipOptions(t), testutil.BuildZipEntries(t))
		assert.Equal(t, 0, b.Len(), "stream=%v", stream)
		assert.Empty(t, b.Files())
		require.NoError(t, b.UnzipAll(context.Background(), nil))
		require.NoError(t, b.Cleanup(context.Background(), false))
	}
}
