package job

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/clipforge-api/internal/runner"
	"github.com/clipforge/clipforge-api/internal/workspace"
)

// mockRunner implements runner.Runner for testing.
type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, script string, args []string) (string, error) {
	called := m.Called(ctx, script, args)
	return called.String(0), called.Error(1)
}

// mockStore implements storage.ObjectStore for testing. The uploaded body
// is drained so expectations can match on the raw bytes.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Put(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	body, _ := io.ReadAll(data)
	called := m.Called(ctx, key, body, contentType)
	return called.String(0), called.Error(1)
}

func (m *mockStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	called := m.Called(ctx, key)
	if called.Get(0) == nil {
		return nil, called.Error(1)
	}
	return called.Get(0).(io.ReadCloser), called.Error(1)
}

func newTestService(t *testing.T, opts ...Option) (*Service, *mockRunner, *mockStore, *workspace.Manager) {
	t.Helper()
	ws, err := workspace.NewManager(t.TempDir())
	require.NoError(t, err)

	r := &mockRunner{}
	store := &mockStore{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewService(r, ws, store, logger, opts...), r, store, ws
}

// stageOutput returns a mock.Run hook that simulates the script writing
// its output file.
func stageOutput(t *testing.T, path string, content []byte) func(mock.Arguments) {
	t.Helper()
	return func(mock.Arguments) {
		require.NoError(t, os.WriteFile(path, content, 0600))
	}
}

func TestApplyEffect(t *testing.T) {
	t.Run("full pipeline with exact argument order", func(t *testing.T) {
		svc, r, store, ws := newTestService(t)
		outputPath := filepath.Join(ws.BaseDir(), "user-U", "out.mp4")

		r.On("Run", mock.Anything, "apply_effect.py",
			[]string{"clip.mp4", "blur", outputPath, `{"amount":15}`}).
			Run(stageOutput(t, outputPath, []byte("processed"))).
			Return("", nil)
		store.On("Put", mock.Anything, "videos/effects/U/out.mp4", []byte("processed"), "video/mp4").
			Return("https://cdn.example.com/videos/effects/U/out.mp4", nil)

		result, err := svc.ApplyEffect(context.Background(), "U", EffectInput{
			InputPath:      "clip.mp4",
			EffectType:     "blur",
			OutputFileName: "out.mp4",
			Params:         map[string]any{"amount": 15},
		})
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/videos/effects/U/out.mp4", result.URL)

		// Staged file is deleted after a successful upload
		_, statErr := os.Stat(outputPath)
		assert.True(t, os.IsNotExist(statErr))

		r.AssertExpectations(t)
		store.AssertExpectations(t)
	})

	t.Run("nil params serialize as empty object", func(t *testing.T) {
		svc, r, store, ws := newTestService(t)
		outputPath := filepath.Join(ws.BaseDir(), "user-U", "out.mp4")

		r.On("Run", mock.Anything, "apply_effect.py",
			[]string{"clip.mp4", "grayscale", outputPath, "{}"}).
			Run(stageOutput(t, outputPath, []byte("x"))).
			Return("", nil)
		store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("url", nil)

		_, err := svc.ApplyEffect(context.Background(), "U", EffectInput{
			InputPath:      "clip.mp4",
			EffectType:     "grayscale",
			OutputFileName: "out.mp4",
		})
		require.NoError(t, err)
		r.AssertExpectations(t)
	})

	t.Run("unsafe output name rejected before any process spawns", func(t *testing.T) {
		svc, r, store, _ := newTestService(t)

		_, err := svc.ApplyEffect(context.Background(), "U", EffectInput{
			InputPath:      "clip.mp4",
			EffectType:     "blur",
			OutputFileName: "../escape.mp4",
		})
		assert.ErrorIs(t, err, workspace.ErrUnsafeFileName)
		r.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRemoveBackground(t *testing.T) {
	t.Run("uploads PNG under background-removed prefix", func(t *testing.T) {
		svc, r, store, ws := newTestService(t)
		outputPath := filepath.Join(ws.BaseDir(), "user-u1", "cut.png")

		r.On("Run", mock.Anything, "remove_background.py",
			[]string{"photo.png", outputPath}).
			Run(stageOutput(t, outputPath, []byte("png"))).
			Return("", nil)
		store.On("Put", mock.Anything, "videos/background-removed/u1/cut.png", []byte("png"), "image/png").
			Return("url", nil)

		_, err := svc.RemoveBackground(context.Background(), "u1", RemoveBackgroundInput{
			InputPath:      "photo.png",
			OutputFileName: "cut.png",
		})
		require.NoError(t, err)
		r.AssertExpectations(t)
		store.AssertExpectations(t)
	})

	t.Run("script failure makes no upload and still cleans up", func(t *testing.T) {
		svc, r, store, ws := newTestService(t)
		outputPath := filepath.Join(ws.BaseDir(), "user-u1", "cut.png")

		procErr := &runner.ProcessError{Script: "remove_background.py", Stderr: "decode error"}
		r.On("Run", mock.Anything, "remove_background.py", mock.Anything).
			Run(stageOutput(t, outputPath, []byte("partial"))).
			Return("", procErr)

		_, err := svc.RemoveBackground(context.Background(), "u1", RemoveBackgroundInput{
			InputPath:      "photo.png",
			OutputFileName: "cut.png",
		})
		require.Error(t, err)

		var got *runner.ProcessError
		require.ErrorAs(t, err, &got)
		assert.Equal(t, "decode error", got.Stderr)

		store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

		// Partial output left by the failed script is cleaned up
		_, statErr := os.Stat(outputPath)
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestCreateGIF(t *testing.T) {
	t.Run("fps encoded as decimal string, duration omitted", func(t *testing.T) {
		svc, r, store, ws := newTestService(t)
		outputPath := filepath.Join(ws.BaseDir(), "user-u1", "out.gif")

		r.On("Run", mock.Anything, "create_gif.py",
			[]string{"clip.mp4", outputPath, "10"}).
			Run(stageOutput(t, outputPath, []byte("gif"))).
			Return("", nil)
		store.On("Put", mock.Anything, "videos/gifs/u1/out.gif", []byte("gif"), "image/gif").
			Return("url", nil)

		_, err := svc.CreateGIF(context.Background(), "u1", GIFInput{
			InputPath:      "clip.mp4",
			OutputFileName: "out.gif",
			FPS:            10,
		})
		require.NoError(t, err)
		r.AssertExpectations(t)
	})

	t.Run("duration appended when set", func(t *testing.T) {
		svc, r, store, ws := newTestService(t)
		outputPath := filepath.Join(ws.BaseDir(), "user-u1", "out.gif")
		duration := 3.5

		r.On("Run", mock.Anything, "create_gif.py",
			[]string{"clip.mp4", outputPath, "15", "3.5"}).
			Run(stageOutput(t, outputPath, []byte("gif"))).
			Return("", nil)
		store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("url", nil)

		_, err := svc.CreateGIF(context.Background(), "u1", GIFInput{
			InputPath:      "clip.mp4",
			OutputFileName: "out.gif",
			FPS:            15,
			Duration:       &duration,
		})
		require.NoError(t, err)
		r.AssertExpectations(t)
	})
}

func TestExportVideo(t *testing.T) {
	t.Run("mp4 high with dimensions", func(t *testing.T) {
		svc, r, store, ws := newTestService(t)
		outputPath := filepath.Join(ws.BaseDir(), "user-U", "final.mp4")

		r.On("Run", mock.Anything, "export_video.py",
			[]string{"clip.mp4", outputPath, "mp4", "high", "1920", "1080"}).
			Run(stageOutput(t, outputPath, []byte("mp4"))).
			Return("", nil)
		store.On("Put", mock.Anything, "videos/exports/U/final.mp4", []byte("mp4"), "video/mp4").
			Return("url", nil)

		_, err := svc.ExportVideo(context.Background(), "U", ExportInput{
			InputPath:      "clip.mp4",
			OutputFileName: "final.mp4",
			Format:         "mp4",
			Quality:        "high",
			Width:          1920,
			Height:         1080,
		})
		require.NoError(t, err)
		r.AssertExpectations(t)
		store.AssertExpectations(t)
	})

	t.Run("content type follows the format", func(t *testing.T) {
		svc, r, store, ws := newTestService(t)
		outputPath := filepath.Join(ws.BaseDir(), "user-U", "final.webm")

		r.On("Run", mock.Anything, "export_video.py",
			[]string{"clip.mp4", outputPath, "webm", "low"}).
			Run(stageOutput(t, outputPath, []byte("webm"))).
			Return("", nil)
		store.On("Put", mock.Anything, "videos/exports/U/final.webm", []byte("webm"), "video/webm").
			Return("url", nil)

		_, err := svc.ExportVideo(context.Background(), "U", ExportInput{
			InputPath:      "clip.mp4",
			OutputFileName: "final.webm",
			Format:         "webm",
			Quality:        "low",
		})
		require.NoError(t, err)
		store.AssertExpectations(t)
	})
}

func TestCreateAnimation(t *testing.T) {
	svc, r, store, ws := newTestService(t)
	outputPath := filepath.Join(ws.BaseDir(), "user-u1", "anim.gif")

	// 2.0 must serialize as "2", matching how the scripts parse numbers
	r.On("Run", mock.Anything, "create_animation.py",
		[]string{"still.png", outputPath, "zoom", "2", "30"}).
		Run(stageOutput(t, outputPath, []byte("anim"))).
		Return("", nil)
	store.On("Put", mock.Anything, "videos/animations/u1/anim.gif", []byte("anim"), "image/gif").
		Return("url", nil)

	_, err := svc.CreateAnimation(context.Background(), "u1", AnimationInput{
		ImagePath:      "still.png",
		OutputFileName: "anim.gif",
		EffectType:     "zoom",
		Duration:       2.0,
		FPS:            30,
	})
	require.NoError(t, err)
	r.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestAddWatermark(t *testing.T) {
	tests := []struct {
		name    string
		opacity float64
		encoded string
	}{
		{"default opacity", 0.7, "0.7"},
		{"fully transparent", 0, "0"},
		{"fully opaque", 1, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, r, store, ws := newTestService(t)
			outputPath := filepath.Join(ws.BaseDir(), "user-u1", "wm.mp4")

			r.On("Run", mock.Anything, "add_watermark.py",
				[]string{"clip.mp4", "logo.png", outputPath, "bottom-right", tt.encoded}).
				Run(stageOutput(t, outputPath, []byte("wm"))).
				Return("", nil)
			store.On("Put", mock.Anything, "videos/watermarked/u1/wm.mp4", []byte("wm"), "video/mp4").
				Return("url", nil)

			_, err := svc.AddWatermark(context.Background(), "u1", WatermarkInput{
				VideoPath:      "clip.mp4",
				WatermarkPath:  "logo.png",
				OutputFileName: "wm.mp4",
				Position:       "bottom-right",
				Opacity:        tt.opacity,
			})
			require.NoError(t, err)
			r.AssertExpectations(t)
		})
	}
}

func TestService_UploadFailure(t *testing.T) {
	svc, r, store, ws := newTestService(t)
	outputPath := filepath.Join(ws.BaseDir(), "user-u1", "out.mp4")

	r.On("Run", mock.Anything, "apply_effect.py", mock.Anything).
		Run(stageOutput(t, outputPath, []byte("x"))).
		Return("", nil)
	store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", assert.AnError)

	_, err := svc.ApplyEffect(context.Background(), "u1", EffectInput{
		InputPath:      "clip.mp4",
		EffectType:     "blur",
		OutputFileName: "out.mp4",
	})
	require.Error(t, err)

	var storeErr *StorageError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "videos/effects/u1/out.mp4", storeErr.Key)

	// Cleanup still runs when the upload fails
	_, statErr := os.Stat(outputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestService_PerUserConcurrencyCap(t *testing.T) {
	svc, r, store, ws := newTestService(t, WithMaxJobsPerUser(1))
	outputPath := filepath.Join(ws.BaseDir(), "user-u1", "slow.mp4")

	started := make(chan struct{})
	release := make(chan struct{})

	r.On("Run", mock.Anything, "apply_effect.py", mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
			require.NoError(t, os.WriteFile(outputPath, []byte("x"), 0600))
		}).
		Return("", nil)
	store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("url", nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.ApplyEffect(context.Background(), "u1", EffectInput{
			InputPath:      "clip.mp4",
			EffectType:     "blur",
			OutputFileName: "slow.mp4",
		})
		done <- err
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first job never started")
	}

	// Second job for the same user fails fast while the first holds the slot
	_, err := svc.ApplyEffect(context.Background(), "u1", EffectInput{
		InputPath:      "clip.mp4",
		EffectType:     "blur",
		OutputFileName: "other.mp4",
	})
	assert.ErrorIs(t, err, ErrUserBusy)

	// A different user is not affected by u1's slot
	otherPath := filepath.Join(ws.BaseDir(), "user-u2", "ok.mp4")
	r.On("Run", mock.Anything, "create_gif.py", mock.Anything).
		Run(stageOutput(t, otherPath, []byte("gif"))).
		Return("", nil)
	_, err = svc.CreateGIF(context.Background(), "u2", GIFInput{
		InputPath:      "clip.mp4",
		OutputFileName: "ok.mp4",
		FPS:            10,
	})
	assert.NoError(t, err)

	close(release)
	require.NoError(t, <-done)
}

func TestGetVideoInfo(t *testing.T) {
	t.Run("parses script output", func(t *testing.T) {
		svc, r, _, _ := newTestService(t)

		r.On("Run", mock.Anything, "get_video_info.py", []string{"clip.mp4"}).
			Return(`{"fps":29.97,"width":1920,"height":1080,"total_frames":900,"duration":30}`, nil)

		info, err := svc.GetVideoInfo(context.Background(), "clip.mp4")
		require.NoError(t, err)
		assert.InDelta(t, 29.97, info.FPS, 0.001)
		assert.Equal(t, 1920, info.Width)
		assert.Equal(t, 1080, info.Height)
		assert.Equal(t, 900, info.TotalFrames)
		assert.InDelta(t, 30, info.Duration, 0.001)
	})

	t.Run("is idempotent for an unchanged input", func(t *testing.T) {
		svc, r, _, _ := newTestService(t)

		r.On("Run", mock.Anything, "get_video_info.py", []string{"clip.mp4"}).
			Return(`{"fps":24,"width":640,"height":480,"total_frames":240,"duration":10}`, nil)

		first, err := svc.GetVideoInfo(context.Background(), "clip.mp4")
		require.NoError(t, err)
		second, err := svc.GetVideoInfo(context.Background(), "clip.mp4")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("malformed output is an error", func(t *testing.T) {
		svc, r, _, _ := newTestService(t)

		r.On("Run", mock.Anything, "get_video_info.py", mock.Anything).
			Return("not json", nil)

		_, err := svc.GetVideoInfo(context.Background(), "clip.mp4")
		assert.Error(t, err)
	})
}
