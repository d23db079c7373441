package dropbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
)

const (
	uploadEndpoint        = "files/upload"
	sessionStartEndpoint  = "files/upload_session/start"
	sessionAppendEndpoint = "files/upload_session/append_v2"
	sessionFinishEndpoint = "files/upload_session/finish"
)

// UploadSource is a content stream prepared for upload. Its capabilities -
// size, seekability, pipe-likeness - are fixed at construction and drive
// every later chunking and retry decision.
type UploadSource struct {
	r      io.Reader
	seeker io.Seeker // nil when the stream cannot rewind
	closer io.Closer // set when this package opened the underlying file
	size   int64     // total bytes the source will provide, -1 unknown

	consumed int64 // bytes successfully handed to the server so far
	peekBuf  [1]byte
	havePeek bool
	sawEOF   bool
}

// NewFileSource wraps an open file. Regular files upload as seekable
// streams of known size; FIFOs and devices fall back to the pipe path.
// The caller keeps ownership of f.
func NewFileSource(f *os.File) (*UploadSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat upload source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return &UploadSource{r: f, size: -1}, nil
	}
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		// seekable in name only, treat like a pipe
		return &UploadSource{r: f, size: -1}, nil
	}
	return &UploadSource{r: f, seeker: f, size: info.Size() - pos}, nil
}

// OpenFileSource opens path and wraps it like NewFileSource. Close the
// source to release the file handle.
func OpenFileSource(path string) (*UploadSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	src, err := NewFileSource(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	src.closer = f
	return src, nil
}

// NewBytesSource uploads an in-memory payload.
func NewBytesSource(b []byte) *UploadSource {
	r := bytes.NewReader(b)
	return &UploadSource{r: r, seeker: r, size: int64(len(b))}
}

// NewReaderSource wraps an arbitrary reader providing size bytes, or -1
// when the length is unknown. Readers that can seek have their remaining
// length measured instead of trusted.
func NewReaderSource(r io.Reader, size int64) *UploadSource {
	if s, ok := r.(io.Seeker); ok {
		if measured, err := seekRemaining(s); err == nil {
			return &UploadSource{r: r, seeker: s, size: measured}
		}
	}
	if size < 0 {
		return &UploadSource{r: r, size: -1}
	}
	return &UploadSource{r: r, size: size}
}

func seekRemaining(s io.Seeker) (int64, error) {
	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := s.Seek(cur, io.SeekStart); err != nil {
		return 0, err
	}
	return end - cur, nil
}

// Size returns the total bytes the source will provide and whether that
// is known ahead of time.
func (s *UploadSource) Size() (int64, bool) {
	if s.size < 0 {
		return 0, false
	}
	return s.size, true
}

// Seekable reports whether a failed transmission can rewind and replay.
func (s *UploadSource) Seekable() bool {
	return s.seeker != nil
}

// PipeLike reports a stream whose end arrives only as EOF, forcing the
// chunked upload path regardless of how much data actually shows up.
func (s *UploadSource) PipeLike() bool {
	return s.size < 0
}

// Close releases the file handle if this package opened it, otherwise a
// no-op.
func (s *UploadSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func (s *UploadSource) position() (int64, error) {
	return s.seeker.Seek(0, io.SeekCurrent)
}

func (s *UploadSource) rewind(pos int64) error {
	_, err := s.seeker.Seek(pos, io.SeekStart)
	return err
}

func (s *UploadSource) remaining() int64 {
	return s.size - s.consumed
}

// consumedChunk records n bytes as accepted by the server. Any peeked byte
// was the first byte of that chunk, so the lookahead slot is clear again.
func (s *UploadSource) consumedChunk(n int64) {
	s.consumed += n
	s.havePeek = false
}

// exhausted reports whether the stream has no bytes left. Unknown-size
// streams learn this by reading one byte ahead, which the next chunk then
// carries.
func (s *UploadSource) exhausted() (bool, error) {
	if s.size >= 0 {
		return s.consumed >= s.size, nil
	}
	if s.havePeek {
		return false, nil
	}
	if s.sawEOF {
		return true, nil
	}

	switch _, err := io.ReadFull(s.r, s.peekBuf[:]); err {
	case nil:
		s.havePeek = true
		return false, nil
	case io.EOF:
		s.sawEOF = true
		return true, nil
	default:
		return false, err
	}
}

// nextChunk returns a reader over the next at-most-max bytes, starting
// with the peeked byte when one is buffered.
func (s *UploadSource) nextChunk(max int64) io.Reader {
	if s.size >= 0 {
		return io.LimitReader(s.r, min(max, s.remaining()))
	}
	if s.havePeek {
		return io.MultiReader(bytes.NewReader(s.peekBuf[:]), io.LimitReader(s.r, max-1))
	}
	return io.LimitReader(s.r, max)
}

// shouldUploadChunked decides between the single-call upload and an upload
// session. Pipe-like sources always take the session path because the
// direct endpoint needs a length up front; everything else only when the
// content exceeds one chunk.
func shouldUploadChunked(src *UploadSource, chunkSize int64) bool {
	if src.PipeLike() {
		return true
	}
	size, known := src.Size()
	return known && size > chunkSize
}

// Upload stores content at path. Sources larger than the configured chunk
// size, and all pipe-like sources, go through an upload session; the rest
// use the single-call endpoint.
func (f *FilesAPI) Upload(ctx context.Context, path string, src *UploadSource, opts *UploadOptions) (*Metadata, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	commit := opts.commitInfo(NormalizePath(path))
	if shouldUploadChunked(src, f.client.cfg.chunkSize()) {
		return f.newChunkUploader(src, commit, opts).run(ctx)
	}
	return f.uploadSmall(ctx, commit, src, opts)
}

// uploadSmall sends the whole source in one files/upload call. Only
// reached for sources of known size within one chunk.
func (f *FilesAPI) uploadSmall(ctx context.Context, commit *CommitInfo, src *UploadSource, opts *UploadOptions) (*Metadata, error) {
	size, _ := src.Size()
	var progress ProgressFunc
	if opts != nil {
		progress = opts.Progress
	}

	var res Metadata
	if src.Seekable() {
		pos, err := src.position()
		if err != nil {
			return nil, fmt.Errorf("stream position: %w", err)
		}
		newBody := func() (io.Reader, error) {
			if err := src.rewind(pos); err != nil {
				return nil, fmt.Errorf("rewind stream: %w", err)
			}
			return wrapProgress(io.LimitReader(src.r, size), 0, size, progress), nil
		}
		if err := f.client.contentCall(ctx, uploadEndpoint, commit, size, newBody, &res); err != nil {
			return nil, err
		}
		reportComplete(progress, size)
		return &res, nil
	}

	body := wrapProgress(io.LimitReader(src.r, size), 0, size, progress)
	if err := f.client.contentCallOnce(ctx, uploadEndpoint, commit, size, body, &res); err != nil {
		return nil, err
	}
	reportComplete(progress, size)
	return &res, nil
}

// UploadSessionStart opens an upload session carrying the first chunk.
// size may be -1 for streams of unknown length. With closeSession no
// further appends are allowed, only a finish.
//
// These three session primitives are single-attempt building blocks for
// callers driving their own sessions; Upload layers the retry policies on
// top of them.
func (f *FilesAPI) UploadSessionStart(ctx context.Context, content io.Reader, size int64, closeSession bool) (*UploadSessionStartResult, error) {
	var res UploadSessionStartResult
	arg := &uploadSessionStartArg{Close: closeSession}
	if err := f.client.contentCallOnce(ctx, sessionStartEndpoint, arg, size, content, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UploadSessionAppend adds content at the cursor's offset. The offset must
// equal the bytes the server has accepted so far.
func (f *FilesAPI) UploadSessionAppend(ctx context.Context, cursor UploadSessionCursor, content io.Reader, size int64) error {
	arg := &uploadSessionAppendArg{Cursor: cursor}
	return f.client.contentCallOnce(ctx, sessionAppendEndpoint, arg, size, content, nil)
}

// UploadSessionFinish commits the session's bytes to path. content may be
// nil when the terminal chunk was already appended.
func (f *FilesAPI) UploadSessionFinish(ctx context.Context, cursor UploadSessionCursor, commit *CommitInfo, content io.Reader, size int64) (*Metadata, error) {
	var res Metadata
	arg := &uploadSessionFinishArg{Cursor: cursor, Commit: commit}
	if err := f.client.contentCallOnce(ctx, sessionFinishEndpoint, arg, size, content, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// chunkUploader drives one upload session: start with the first chunk,
// append until the stream runs dry, finish with the commit.
type chunkUploader struct {
	client     *Client
	src        *UploadSource
	commit     *CommitInfo
	chunkSize  int64
	maxRetries int
	progress   ProgressFunc
	total      int64 // -1 when unknown
	sent       int64
}

func (f *FilesAPI) newChunkUploader(src *UploadSource, commit *CommitInfo, opts *UploadOptions) *chunkUploader {
	cfg := f.client.cfg
	u := &chunkUploader{
		client:     f.client,
		src:        src,
		commit:     commit,
		chunkSize:  cfg.chunkSize(),
		maxRetries: cfg.MaxChunkRetries,
		total:      -1,
	}
	if size, ok := src.Size(); ok {
		u.total = size
	}
	if opts != nil {
		u.progress = opts.Progress
	}
	return u
}

func (u *chunkUploader) run(ctx context.Context) (*Metadata, error) {
	slog.Debug("dropbox chunked upload",
		"path", u.commit.Path,
		"chunk_size", humanize.IBytes(uint64(u.chunkSize)))

	var start UploadSessionStartResult
	n, err := u.transmit(ctx, sessionStartEndpoint, &uploadSessionStartArg{}, &start)
	if err != nil {
		return nil, fmt.Errorf("upload session start: %w", err)
	}
	if start.SessionID == "" {
		return nil, errors.New("upload session start: empty session id")
	}

	cursor := UploadSessionCursor{SessionID: start.SessionID, Offset: uint64(n)}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		done, err := u.src.exhausted()
		if err != nil {
			return nil, fmt.Errorf("read upload source: %w", err)
		}
		if done {
			break
		}

		n, err := u.transmit(ctx, sessionAppendEndpoint, &uploadSessionAppendArg{Cursor: cursor}, nil)
		if err != nil {
			return nil, fmt.Errorf("upload session append at offset %d: %w", cursor.Offset, err)
		}
		cursor = cursor.advanced(n)
	}

	// every byte is already in the session, finish carries only the commit
	var res Metadata
	finish := &uploadSessionFinishArg{Cursor: cursor, Commit: u.commit}
	if err := u.client.contentCall(ctx, sessionFinishEndpoint, finish, 0, nil, &res); err != nil {
		return nil, fmt.Errorf("upload session finish at offset %d: %w", cursor.Offset, err)
	}
	return &res, nil
}

// transmit sends the next chunk to endpoint and returns the byte count the
// server accepted. Seekable sources replay a failed chunk from the same
// stream position up to maxRetries extra times; everything else is
// single-shot.
func (u *chunkUploader) transmit(ctx context.Context, endpoint string, arg, result any) (int64, error) {
	if u.src.Seekable() {
		return u.transmitSeekable(ctx, endpoint, arg, result)
	}
	return u.transmitOnce(ctx, endpoint, arg, result)
}

func (u *chunkUploader) transmitSeekable(ctx context.Context, endpoint string, arg, result any) (int64, error) {
	pos, err := u.src.position()
	if err != nil {
		return 0, fmt.Errorf("stream position: %w", err)
	}
	want := min(u.chunkSize, u.src.remaining())

	var counter *countingReader
	newBody := func() (io.Reader, error) {
		if err := u.src.rewind(pos); err != nil {
			return nil, fmt.Errorf("rewind stream: %w", err)
		}
		counter = &countingReader{reader: u.src.nextChunk(u.chunkSize)}
		return wrapProgress(counter, u.sent, u.total, u.progress), nil
	}

	for attempt := 0; ; attempt++ {
		err := u.client.contentCall(ctx, endpoint, arg, want, newBody, result)
		if err == nil {
			n := counter.n
			u.src.consumedChunk(n)
			u.sent += n
			u.reportProgress()
			return n, nil
		}
		if attempt >= u.maxRetries || !retryableChunk(err) {
			return 0, err
		}
		slog.Debug("dropbox chunk retry",
			"endpoint", endpoint,
			"attempt", attempt+1,
			"position", pos,
			"error", err)
	}
}

func (u *chunkUploader) transmitOnce(ctx context.Context, endpoint string, arg, result any) (int64, error) {
	size := int64(-1)
	if !u.src.PipeLike() {
		size = min(u.chunkSize, u.src.remaining())
	}
	counter := &countingReader{reader: u.src.nextChunk(u.chunkSize)}
	body := wrapProgress(counter, u.sent, u.total, u.progress)

	// consumed bytes cannot be replayed, so the first failure is final
	if err := u.client.contentCallOnce(ctx, endpoint, arg, size, body, result); err != nil {
		return 0, err
	}
	u.src.consumedChunk(counter.n)
	u.sent += counter.n
	u.reportProgress()
	return counter.n, nil
}

// reportProgress emits the post-chunk completion report. The in-flight
// reader only reports on a timer, so short chunks would otherwise finish
// silently.
func (u *chunkUploader) reportProgress() {
	if u.progress != nil {
		u.progress(u.sent, u.total)
	}
}

// retryableChunk separates per-chunk retry candidates from failures that
// must fall through: a dead refresh token cannot heal and cancellation is
// the caller's decision.
func retryableChunk(err error) bool {
	return !errors.Is(err, ErrRefreshFailed) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
