package dropbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

const downloadEndpoint = "files/download"

// Download returns a file's metadata and a stream of its content. The
// caller owns the returned body and must close it.
func (f *FilesAPI) Download(ctx context.Context, path string) (*Metadata, io.ReadCloser, error) {
	return f.download(ctx, path, nil)
}

// DownloadRange fetches length bytes starting at offset through an HTTP
// range request. length -1 reads to the end of the file.
func (f *FilesAPI) DownloadRange(ctx context.Context, path string, offset, length int64) (*Metadata, io.ReadCloser, error) {
	header := http.Header{}
	if length < 0 {
		header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	} else {
		header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))
	}
	return f.download(ctx, path, header)
}

func (f *FilesAPI) download(ctx context.Context, path string, header http.Header) (*Metadata, io.ReadCloser, error) {
	arg := &pathArg{Path: NormalizePath(path)}
	resp, err := f.client.contentFetch(ctx, downloadEndpoint, arg, header)
	if err != nil {
		return nil, nil, err
	}

	meta, err := metadataFromHeader(resp.Header)
	if err != nil {
		resp.Body.Close()
		return nil, nil, err
	}
	return meta, resp.Body, nil
}

// DownloadToFile streams a remote file to destPath, creating parent
// directories as needed. A partial file is removed on failure.
func (f *FilesAPI) DownloadToFile(ctx context.Context, path, destPath string, progress ProgressFunc) (*Metadata, error) {
	meta, body, err := f.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure download dir: %w", err)
	}
	out, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("create %q: %w", destPath, err)
	}

	src := wrapProgress(body, 0, int64(meta.Size), progress)
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		_ = os.Remove(destPath)
		return nil, fmt.Errorf("download %q: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("close %q: %w", destPath, err)
	}

	slog.Debug("dropbox download complete",
		"path", path,
		"size", humanize.IBytes(meta.Size))
	return meta, nil
}

// metadataFromHeader decodes the Dropbox-API-Result header, which carries
// the file metadata on content downloads.
func metadataFromHeader(h http.Header) (*Metadata, error) {
	raw := h.Get(HeaderAPIResult)
	if raw == "" {
		return nil, fmt.Errorf("missing %s header", HeaderAPIResult)
	}
	var meta Metadata
	if err := jsonUnmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("decode %s header: %w", HeaderAPIResult, err)
	}
	return &meta, nil
}
