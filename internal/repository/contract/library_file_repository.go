package contract

import (
	"context"

	"github.com/thetahealth/mirobody-sub003/internal/entity"
	"github.com/thetahealth/mirobody-sub003/internal/repository/specification"
)

type LibraryFileRepository interface {
	// FindNewestByKey returns the most recent row for a file_key, nil when
	// the key is unknown or deleted.
	FindNewestByKey(ctx context.Context, fileKey string) (*entity.LibraryFile, error)
	// ListDistinct pages through the newest row per distinct file_key.
	ListDistinct(ctx context.Context, specs ...specification.Specification) ([]*entity.LibraryFile, error)
	CountDistinct(ctx context.Context, specs ...specification.Specification) (int64, error)
}
