// ABOUTME: Dataset handle creation: pushes CSV bytes to the execution backend once per process.
// ABOUTME: Provides the opaque Handle the pipeline binds its code-interpreter agent to.
package dataset

import (
	"context"
	"fmt"
)

// Uploader is the slice of the execution backend needed to create a Handle.
type Uploader interface {
	UploadFile(ctx context.Context, name string, data []byte) (fileID string, err error)
}

// Handle identifies the uploaded dataset as known to the execution backend.
// It is immutable: created once per process lifetime and reused by every
// conversation, surviving conversation resets.
type Handle struct {
	FileID   string
	FileName string
}

// Upload pushes the dataset bytes to the execution backend and returns the
// Handle the code-interpreter agent will be bound to.
func Upload(ctx context.Context, up Uploader, name string, data []byte) (Handle, error) {
	if len(data) == 0 {
		return Handle{}, fmt.Errorf("refusing to upload empty dataset %q", name)
	}

	fileID, err := up.UploadFile(ctx, name, data)
	if err != nil {
		return Handle{}, fmt.Errorf("uploading dataset %q: %w", name, err)
	}
	return Handle{FileID: fileID, FileName: name}, nil
}
