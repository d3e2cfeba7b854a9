package transfer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/tnqbao/gau-docgen-orchestrator/entity"
	"github.com/tnqbao/gau-docgen-orchestrator/utils"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second

	chunkSize = 32 * 1024
)

// Store is the slice of the blob store the engine transfers against.
type Store interface {
	OpenPath(ctx context.Context, bucket, path string) (io.ReadCloser, int64, error)
	PutPath(ctx context.Context, bucket, path string, reader io.Reader, size int64, contentType string) error
	StatPath(ctx context.Context, bucket, path string) (int64, error)
}

// Resolver finds the stored key for a job's artifact. Satisfied by
// locator.Locator.
type Resolver interface {
	Resolve(ctx context.Context, bucket string, job *entity.GenerationJob) (string, error)
}

// Options configures one transfer. OnProgress receives whole percents;
// 100 is reported exactly once, on success only. OnError receives the
// final *entity.TransferError exactly once, after the retry budget is
// exhausted; cancellation and not-found are not reported through it.
type Options struct {
	OnProgress  func(percent int)
	OnError     func(err error)
	MaxAttempts int
	BaseDelay   time.Duration
	Overwrite   bool
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	return o
}

func (o Options) progress(percent int) {
	if o.OnProgress != nil {
		o.OnProgress(percent)
	}
}

// Engine performs chunked blob transfers with bounded retry and backoff.
// Every retry loop that used to live at a call site goes through here.
type Engine struct {
	store    Store
	resolver Resolver
}

func NewEngine(store Store, resolver Resolver) *Engine {
	return &Engine{store: store, resolver: resolver}
}

// Download resolves the job's artifact through the locator and streams it
// into dst. It fails fast with entity.ErrArtifactNotFound when no candidate
// verifies; it never attempts a blind transfer.
func (e *Engine) Download(ctx context.Context, bucket string, job *entity.GenerationJob, dst io.Writer, opts Options) error {
	opts = opts.withDefaults()

	key, err := e.resolver.Resolve(ctx, bucket, job)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		buf, err := e.fetch(ctx, bucket, key, opts)
		if err == nil {
			if _, werr := io.Copy(dst, buf); werr != nil {
				return e.fail(opts, attempt, werr)
			}
			opts.progress(100)
			return nil
		}
		if canceled(ctx, err) {
			return err
		}

		lastErr = err
		if attempt < opts.MaxAttempts {
			if err := sleep(ctx, opts.BaseDelay*time.Duration(attempt)); err != nil {
				return err
			}
		}
	}

	return e.fail(opts, opts.MaxAttempts, lastErr)
}

// fetch reads the object fully into memory, reporting progress up to 99%.
// The final 100% belongs to Download, emitted once after the bytes reached
// the destination. The buffer is discarded on any failure.
func (e *Engine) fetch(ctx context.Context, bucket, key string, opts Options) (*bytes.Buffer, error) {
	reader, size, err := e.store.OpenPath(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	opts.progress(0)

	buf := &bytes.Buffer{}
	chunk := make([]byte, chunkSize)
	lastPercent := 0
	for {
		n, err := reader.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			// Without a reported content length progress stays at 0
			// until completion; fabricated intermediate values help nobody.
			if size > 0 {
				percent := int(int64(buf.Len()) * 100 / size)
				if percent > 99 {
					percent = 99
				}
				if percent > lastPercent {
					lastPercent = percent
					opts.progress(percent)
				}
			}
		}
		if err == io.EOF {
			return buf, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// Upload writes data to destPath with a content type derived from the
// destination extension. Unsupported extensions are rejected before any
// network call; an existing destination is rejected unless Overwrite is
// set.
func (e *Engine) Upload(ctx context.Context, bucket, destPath string, data []byte, opts Options) error {
	opts = opts.withDefaults()

	contentType := utils.ContentTypeForExtension(destPath)
	if contentType == "" {
		return &entity.ValidationError{Field: "file", Reason: "unsupported file extension"}
	}

	if !opts.Overwrite {
		if _, err := e.store.StatPath(ctx, bucket, destPath); err == nil {
			return &entity.ValidationError{Field: "path", Reason: "destination already exists"}
		}
	}

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		opts.progress(0)
		reader := &progressReader{
			reader: bytes.NewReader(data),
			total:  int64(len(data)),
			notify: opts.progress,
		}
		err := e.store.PutPath(ctx, bucket, destPath, reader, int64(len(data)), contentType)
		if err == nil {
			opts.progress(100)
			return nil
		}
		if canceled(ctx, err) {
			return err
		}

		lastErr = err
		if attempt < opts.MaxAttempts {
			if err := sleep(ctx, opts.BaseDelay*time.Duration(attempt)); err != nil {
				return err
			}
		}
	}

	return e.fail(opts, opts.MaxAttempts, lastErr)
}

func (e *Engine) fail(opts Options, attempts int, cause error) error {
	transferErr := &entity.TransferError{Attempts: attempts, Cause: cause}
	if opts.OnError != nil {
		opts.OnError(transferErr)
	}
	return transferErr
}

func canceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// progressReader reports upload progress up to 99% as the store consumes
// the payload.
type progressReader struct {
	reader *bytes.Reader
	total  int64
	read   int64
	last   int
	notify func(int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.reader.Read(b)
	if n > 0 && p.total > 0 && p.notify != nil {
		p.read += int64(n)
		percent := int(p.read * 100 / p.total)
		if percent > 99 {
			percent = 99
		}
		if percent > p.last {
			p.last = percent
			p.notify(percent)
		}
	}
	return n, err
}
