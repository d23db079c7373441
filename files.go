package dropbox

import (
	"context"
)

// FilesAPI groups the files namespace: listing, metadata, folder
// manipulation and content transfer.
type FilesAPI struct {
	client *Client
}

// ListFolder returns the first page of entries under a folder. When
// HasMore is set, follow up with ListFolderContinue.
func (f *FilesAPI) ListFolder(ctx context.Context, arg *ListFolderArg) (*ListFolderResult, error) {
	if arg == nil {
		arg = &ListFolderArg{}
	}
	a := *arg
	a.Path = NormalizePath(a.Path)

	var res ListFolderResult
	if err := f.client.rpc(ctx, "files/list_folder", &a, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListFolderContinue resumes a listing from a cursor returned by
// ListFolder.
func (f *FilesAPI) ListFolderContinue(ctx context.Context, cursor string) (*ListFolderResult, error) {
	var res ListFolderResult
	if err := f.client.rpc(ctx, "files/list_folder/continue", &cursorArg{Cursor: cursor}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetMetadata describes a single file or folder.
func (f *FilesAPI) GetMetadata(ctx context.Context, path string) (*Metadata, error) {
	var res Metadata
	if err := f.client.rpc(ctx, "files/get_metadata", &pathArg{Path: NormalizePath(path)}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CreateFolder creates a folder. With autoRename the server resolves a
// name conflict by appending a suffix instead of failing.
func (f *FilesAPI) CreateFolder(ctx context.Context, path string, autoRename bool) (*Metadata, error) {
	arg := &createFolderArg{Path: NormalizePath(path), AutoRename: autoRename}
	var res metadataResult
	if err := f.client.rpc(ctx, "files/create_folder_v2", arg, &res); err != nil {
		return nil, err
	}
	return res.Metadata, nil
}

// Delete removes a file, or a folder with all its contents.
func (f *FilesAPI) Delete(ctx context.Context, path string) (*Metadata, error) {
	var res metadataResult
	if err := f.client.rpc(ctx, "files/delete_v2", &pathArg{Path: NormalizePath(path)}, &res); err != nil {
		return nil, err
	}
	return res.Metadata, nil
}

// Move relocates a file or folder to a new path.
func (f *FilesAPI) Move(ctx context.Context, fromPath, toPath string) (*Metadata, error) {
	arg := &relocationArg{FromPath: NormalizePath(fromPath), ToPath: NormalizePath(toPath)}
	var res metadataResult
	if err := f.client.rpc(ctx, "files/move_v2", arg, &res); err != nil {
		return nil, err
	}
	return res.Metadata, nil
}

// Copy duplicates a file or folder at a new path.
func (f *FilesAPI) Copy(ctx context.Context, fromPath, toPath string) (*Metadata, error) {
	arg := &relocationArg{FromPath: NormalizePath(fromPath), ToPath: NormalizePath(toPath)}
	var res metadataResult
	if err := f.client.rpc(ctx, "files/copy_v2", arg, &res); err != nil {
		return nil, err
	}
	return res.Metadata, nil
}

// Search finds files and folders matching a query.
func (f *FilesAPI) Search(ctx context.Context, arg *SearchArg) (*SearchResult, error) {
	if arg == nil {
		arg = &SearchArg{}
	}
	a := *arg
	if a.Options != nil && a.Options.Path != "" {
		opts := *a.Options
		opts.Path = NormalizePath(opts.Path)
		a.Options = &opts
	}

	var res SearchResult
	if err := f.client.rpc(ctx, "files/search_v2", &a, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetTemporaryLink returns a direct download URL that stays valid for
// about four hours.
func (f *FilesAPI) GetTemporaryLink(ctx context.Context, path string) (*TemporaryLinkResult, error) {
	var res TemporaryLinkResult
	if err := f.client.rpc(ctx, "files/get_temporary_link", &pathArg{Path: NormalizePath(path)}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListRevisions returns up to limit prior revisions of a file, newest
// first. limit 0 uses the server default of ten.
func (f *FilesAPI) ListRevisions(ctx context.Context, path string, limit uint64) (*ListRevisionsResult, error) {
	arg := &listRevisionsArg{Path: NormalizePath(path), Limit: limit}
	var res ListRevisionsResult
	if err := f.client.rpc(ctx, "files/list_revisions", arg, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Restore rolls a file back to an earlier revision.
func (f *FilesAPI) Restore(ctx context.Context, path, rev string) (*Metadata, error) {
	arg := &restoreArg{Path: NormalizePath(path), Rev: rev}
	var res Metadata
	if err := f.client.rpc(ctx, "files/restore", arg, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
