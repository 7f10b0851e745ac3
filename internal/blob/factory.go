package blob

import (
	"context"
	"fmt"
	"os"
)

// Open selects a blob.Store implementation using environment variables.
//
//	CLINICALSNAP_BLOB_DRIVER: fs|s3|memory (default fs)
//	CLINICALSNAP_BLOB_FS_ROOT: directory root when driver=fs (default ./mediadata)
//	(S3 specific variables documented in s3.go)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("CLINICALSNAP_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("CLINICALSNAP_BLOB_FS_ROOT"))
	case DriverS3:
		return OpenS3FromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FilesystemStore)(nil)
	_ Store = (*S3Store)(nil)
)
