package transfer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnqbao/gau-docgen-orchestrator/entity"
)

type fakeStore struct {
	content   []byte
	size      int64
	openFails int
	openCalls int
	putFails  int
	putCalls  int
	putErr    error
	stored    map[string][]byte
	exists    bool
}

func (s *fakeStore) OpenPath(_ context.Context, _, _ string) (io.ReadCloser, int64, error) {
	s.openCalls++
	if s.openFails > 0 {
		s.openFails--
		return nil, 0, errors.New("connection reset")
	}
	return io.NopCloser(bytes.NewReader(s.content)), s.size, nil
}

func (s *fakeStore) PutPath(_ context.Context, _, path string, reader io.Reader, _ int64, _ string) error {
	s.putCalls++
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if s.putFails > 0 {
		s.putFails--
		if s.putErr != nil {
			return s.putErr
		}
		return errors.New("write timed out")
	}
	if s.stored == nil {
		s.stored = map[string][]byte{}
	}
	s.stored[path] = data
	return nil
}

func (s *fakeStore) StatPath(_ context.Context, _, _ string) (int64, error) {
	if s.exists {
		return int64(len(s.content)), nil
	}
	return 0, errors.New("not found")
}

type fixedResolver struct {
	key string
	err error
}

func (r fixedResolver) Resolve(_ context.Context, _ string, _ *entity.GenerationJob) (string, error) {
	return r.key, r.err
}

func fastOpts() Options {
	return Options{MaxAttempts: 3, BaseDelay: time.Millisecond}
}

func TestDownloadRetriesThenSucceeds(t *testing.T) {
	payload := []byte("generated resume body")
	store := &fakeStore{content: payload, size: int64(len(payload)), openFails: 2}
	engine := NewEngine(store, fixedResolver{key: "u1/resume.pdf"})

	var out bytes.Buffer
	var percents []int
	onErrorCalls := 0

	opts := fastOpts()
	opts.OnProgress = func(p int) { percents = append(percents, p) }
	opts.OnError = func(error) { onErrorCalls++ }

	err := engine.Download(context.Background(), "docgen", &entity.GenerationJob{SourcePath: "u1/resume.pdf"}, &out, opts)

	require.NoError(t, err)
	assert.Equal(t, payload, out.Bytes())
	assert.Equal(t, 3, store.openCalls)
	assert.Equal(t, 0, onErrorCalls, "OnError fires only on final failure")

	hundreds := 0
	for _, p := range percents {
		if p == 100 {
			hundreds++
		}
	}
	assert.Equal(t, 1, hundreds, "100%% must be reported exactly once")
	assert.Equal(t, 100, percents[len(percents)-1], "100%% must be the last report")
}

func TestDownloadExhaustsRetries(t *testing.T) {
	store := &fakeStore{openFails: 99}
	engine := NewEngine(store, fixedResolver{key: "u1/resume.pdf"})

	var out bytes.Buffer
	onErrorCalls := 0
	var reported error

	opts := fastOpts()
	opts.OnError = func(err error) {
		onErrorCalls++
		reported = err
	}

	err := engine.Download(context.Background(), "docgen", &entity.GenerationJob{SourcePath: "u1/resume.pdf"}, &out, opts)

	var transferErr *entity.TransferError
	require.ErrorAs(t, err, &transferErr)
	assert.Equal(t, 3, transferErr.Attempts)
	assert.Equal(t, 3, store.openCalls)
	assert.Equal(t, 1, onErrorCalls, "OnError fires exactly once")
	assert.Equal(t, err, reported)
	assert.Zero(t, out.Len(), "no partial output on failure")
}

func TestDownloadArtifactNotFound(t *testing.T) {
	store := &fakeStore{}
	engine := NewEngine(store, fixedResolver{err: entity.ErrArtifactNotFound})

	onErrorCalls := 0
	opts := fastOpts()
	opts.OnError = func(error) { onErrorCalls++ }

	var out bytes.Buffer
	err := engine.Download(context.Background(), "docgen", &entity.GenerationJob{SourcePath: "u1/missing.pdf"}, &out, opts)

	assert.ErrorIs(t, err, entity.ErrArtifactNotFound)
	assert.Equal(t, 0, store.openCalls, "no transfer is attempted without a verified key")
	assert.Equal(t, 0, onErrorCalls, "not-found is not a transfer failure")
}

func TestDownloadUnknownLengthProgress(t *testing.T) {
	payload := []byte("some bytes of unknown total size")
	store := &fakeStore{content: payload, size: 0}
	engine := NewEngine(store, fixedResolver{key: "u1/resume.pdf"})

	var percents []int
	opts := fastOpts()
	opts.OnProgress = func(p int) { percents = append(percents, p) }

	var out bytes.Buffer
	err := engine.Download(context.Background(), "docgen", &entity.GenerationJob{SourcePath: "u1/resume.pdf"}, &out, opts)

	require.NoError(t, err)
	assert.Equal(t, []int{0, 100}, percents, "unknown length reports only start and completion")
}

func TestDownloadCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &fakeStore{content: []byte("x"), size: 1}
	engine := NewEngine(store, fixedResolver{key: "u1/resume.pdf"})

	onErrorCalls := 0
	opts := fastOpts()
	opts.OnError = func(error) { onErrorCalls++ }

	var out bytes.Buffer
	err := engine.Download(ctx, "docgen", &entity.GenerationJob{SourcePath: "u1/resume.pdf"}, &out, opts)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, onErrorCalls, "cancellation is not a transfer failure")

	var transferErr *entity.TransferError
	assert.False(t, errors.As(err, &transferErr))
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	store := &fakeStore{}
	engine := NewEngine(store, fixedResolver{})

	err := engine.Upload(context.Background(), "docgen", "u1/resume.exe", []byte("payload"), fastOpts())

	var validationErr *entity.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 0, store.putCalls, "rejected before any network call")
}

func TestUploadRejectsExistingDestination(t *testing.T) {
	store := &fakeStore{exists: true}
	engine := NewEngine(store, fixedResolver{})

	err := engine.Upload(context.Background(), "docgen", "u1/resume.pdf", []byte("payload"), fastOpts())

	var validationErr *entity.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 0, store.putCalls)
}

func TestUploadOverwriteAllowed(t *testing.T) {
	store := &fakeStore{exists: true}
	engine := NewEngine(store, fixedResolver{})

	opts := fastOpts()
	opts.Overwrite = true
	err := engine.Upload(context.Background(), "docgen", "u1/resume.pdf", []byte("payload"), opts)

	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), store.stored["u1/resume.pdf"])
}

func TestUploadRetriesThenSucceeds(t *testing.T) {
	store := &fakeStore{putFails: 2}
	engine := NewEngine(store, fixedResolver{})

	var percents []int
	opts := fastOpts()
	opts.OnProgress = func(p int) { percents = append(percents, p) }

	err := engine.Upload(context.Background(), "docgen", "u1/resume.pdf", []byte("payload"), opts)

	require.NoError(t, err)
	assert.Equal(t, 3, store.putCalls)

	hundreds := 0
	for _, p := range percents {
		if p == 100 {
			hundreds++
		}
	}
	assert.Equal(t, 1, hundreds)
}

func TestUploadExhaustsRetries(t *testing.T) {
	cause := errors.New("bucket quota exceeded")
	store := &fakeStore{putFails: 99, putErr: cause}
	engine := NewEngine(store, fixedResolver{})

	onErrorCalls := 0
	opts := fastOpts()
	opts.OnError = func(error) { onErrorCalls++ }

	err := engine.Upload(context.Background(), "docgen", "u1/resume.pdf", []byte("payload"), opts)

	var transferErr *entity.TransferError
	require.ErrorAs(t, err, &transferErr)
	assert.ErrorIs(t, err, cause, "the last cause stays reachable through the wrapper")
	assert.Equal(t, 1, onErrorCalls)
}
