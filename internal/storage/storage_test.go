package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/orbital-survey/internal/model"
)

func testSample(seq uint64) *model.Sample {
	ts := time.Date(2025, 2, 17, 10, 30, int(seq)*15, 123456000, time.UTC)
	return &model.Sample{
		Timestamp:   ts,
		Sequence:    seq,
		Humidity:    45.1234,
		Temperature: 27.5678,
		Pressure:    1013.25,
		Pitch:       1.234,
		Roll:        359.9,
		Yaw:         180.5,
		Compass:     91.25,
		Position: model.Position{
			Timestamp: ts,
			Latitude:  -33.946075,
			Longitude: 98.58297222,
			Altitude:  418.2,
		},
		Place: "Perth, AU (1,203 km)",
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "data.csv")

	store := NewCSVStore(path)
	require.NoError(t, store.Initialize(ctx))
	require.NoError(t, store.Append(ctx, testSample(1)))
	require.NoError(t, store.Append(ctx, testSample(2)))
	require.NoError(t, store.Close())

	want := [][]string{
		Columns,
		{"2025-02-17 10:30:15.123456", "1", "27.5678", "45.1234", "1013.25", "1.234", "359.9", "180.5", "91.25", "-33.946075", "98.58297222", "Perth, AU (1,203 km)"},
		{"2025-02-17 10:30:30.123456", "2", "27.5678", "45.1234", "1013.25", "1.234", "359.9", "180.5", "91.25", "-33.946075", "98.58297222", "Perth, AU (1,203 km)"},
	}
	if diff := cmp.Diff(want, readCSV(t, path)); diff != "" {
		t.Errorf("data file mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVStoreInitializeTruncates(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale,content\n1,2\n"), 0o644))

	store := NewCSVStore(path)
	require.NoError(t, store.Initialize(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(Columns, ",")+"\n", string(data))
}

func TestCSVStoreAppendBeforeInitialize(t *testing.T) {
	store := NewCSVStore(filepath.Join(t.TempDir(), "data.csv"))

	err := store.Append(context.Background(), testSample(1))
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestCSVStoreAppendFailure(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.csv")

	store := NewCSVStore(path)
	require.NoError(t, store.Initialize(ctx))
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o755))

	assert.Error(t, store.Append(ctx, testSample(1)))
}

func TestCSVStoreQuotesPlace(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.csv")

	store := NewCSVStore(path)
	require.NoError(t, store.Initialize(ctx))
	require.NoError(t, store.Append(ctx, testSample(1)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Perth, AU (1,203 km)"`)
}

func TestSqliteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "survey.sqlite")
	sessionID := uuid.NewString()

	store := NewSqliteStore(path, sessionID, WithSessionConfig(map[string]string{"camera": "synthetic"}))
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Initialize(ctx))
	require.NoError(t, store.Append(ctx, testSample(1)))
	require.NoError(t, store.Append(ctx, testSample(2)))

	session, err := store.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, sessionID, session.ID)
	assert.Equal(t, `{"camera":"synthetic"}`, session.Config.String)
	assert.False(t, session.StartTime.IsZero())

	got, err := store.Samples(ctx)
	require.NoError(t, err)

	want := []*model.Sample{testSample(1), testSample(2)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
}

func TestSqliteStoreInitializeRemovesPrevious(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "survey.sqlite")

	first := NewSqliteStore(path, "first")
	require.NoError(t, first.Initialize(ctx))
	require.NoError(t, first.Append(ctx, testSample(1)))
	require.NoError(t, first.Close())

	second := NewSqliteStore(path, "second")
	t.Cleanup(func() { _ = second.Close() })
	require.NoError(t, second.Initialize(ctx))

	got, err := second.Samples(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	stale := NewSqliteStore(path, "first")
	t.Cleanup(func() { _ = stale.Close() })
	_, err = stale.Session(ctx)
	assert.Error(t, err)
}

func TestSqliteStoreAppendBeforeInitialize(t *testing.T) {
	store := NewSqliteStore(filepath.Join(t.TempDir(), "survey.sqlite"), "id")
	t.Cleanup(func() { _ = store.Close() })

	assert.ErrorIs(t, store.Append(context.Background(), testSample(1)), ErrNotInitialized)
}

type fakeRecorder struct {
	initErr   error
	appendErr error
	closeErr  error

	samples []*model.Sample
	closed  bool
}

func (f *fakeRecorder) Initialize(context.Context) error {
	return f.initErr
}

func (f *fakeRecorder) Append(_ context.Context, s *model.Sample) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.samples = append(f.samples, s)
	return nil
}

func (f *fakeRecorder) Close() error {
	f.closed = true
	return f.closeErr
}

func TestTee(t *testing.T) {
	ctx := context.Background()
	errMirror := errors.New("mirror down")

	t.Run("mirror failure is reported", func(t *testing.T) {
		primary := &fakeRecorder{}
		mirror := &fakeRecorder{appendErr: errMirror}

		var reported []error
		tee := NewTee(primary, mirror, WithMirrorErrorHandler(func(err error) {
			reported = append(reported, err)
		}))

		require.NoError(t, tee.Initialize(ctx))
		require.NoError(t, tee.Append(ctx, testSample(1)))

		assert.Len(t, primary.samples, 1)
		assert.Equal(t, []error{errMirror}, reported)
	})

	t.Run("primary failure skips mirror", func(t *testing.T) {
		errPrimary := errors.New("disk full")
		primary := &fakeRecorder{appendErr: errPrimary}
		mirror := &fakeRecorder{}

		tee := NewTee(primary, mirror)
		assert.ErrorIs(t, tee.Append(ctx, testSample(1)), errPrimary)
		assert.Empty(t, mirror.samples)
	})

	t.Run("mirror initialize failure", func(t *testing.T) {
		tee := NewTee(&fakeRecorder{}, &fakeRecorder{initErr: errMirror})
		assert.ErrorIs(t, tee.Initialize(ctx), errMirror)
	})

	t.Run("close closes both", func(t *testing.T) {
		primary := &fakeRecorder{}
		mirror := &fakeRecorder{closeErr: errMirror}

		tee := NewTee(primary, mirror)
		assert.ErrorIs(t, tee.Close(), errMirror)
		assert.True(t, primary.closed)
		assert.True(t, mirror.closed)
	})
}
