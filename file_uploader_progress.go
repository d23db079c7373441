package dropbox

import (
	"io"
	"time"
)

// ProgressFunc receives the running byte count of a transfer. total is -1
// when the stream length is unknown.
type ProgressFunc func(transferred int64, total int64)

// progressCallbackInterval rate-limits progress callbacks so tight read
// loops do not flood the caller.
const progressCallbackInterval = 500 * time.Millisecond

// progressReader reports bytes flowing through it. base carries the bytes
// completed by earlier chunks of the same transfer.
type progressReader struct {
	reader   io.Reader
	base     int64
	read     int64
	total    int64
	callback ProgressFunc
	lastCall time.Time
}

func (pr *progressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	if n > 0 {
		pr.read += int64(n)
	}

	if pr.callback != nil {
		now := time.Now()
		if now.Sub(pr.lastCall) > progressCallbackInterval || err == io.EOF {
			pr.callback(pr.base+pr.read, pr.total)
			pr.lastCall = now
		}
	}

	return n, err
}

// wrapProgress attaches a progressReader when a callback is set, otherwise
// returns r untouched.
func wrapProgress(r io.Reader, base, total int64, cb ProgressFunc) io.Reader {
	if cb == nil {
		return r
	}
	return &progressReader{reader: r, base: base, total: total, callback: cb}
}

// reportComplete emits the final report of a transfer whose byte count is
// already known to be done.
func reportComplete(cb ProgressFunc, size int64) {
	if cb != nil {
		cb(size, size)
	}
}

// countingReader tallies the bytes drained from a chunk so the uploader
// can advance its cursor by what was actually transmitted.
type countingReader struct {
	reader io.Reader
	n      int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	c.n += int64(n)
	return n, err
}
