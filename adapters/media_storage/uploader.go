package media_storage

import (
	"context"
	"fmt"

	"github.com/khoahotran/account-service/internal/application/service"
	"github.com/khoahotran/account-service/internal/config"
	"github.com/khoahotran/account-service/pkg/logger"
)

const (
	ProviderCloudinary = "cloudinary"
	ProviderS3         = "s3"
)

// NewUploader picks the image host named by image_host.provider.
func NewUploader(ctx context.Context, cfg config.Config, log logger.Logger) (service.Uploader, error) {
	switch cfg.ImageHost.Provider {
	case "", ProviderCloudinary:
		return NewCloudinaryAdapter(cfg, log)
	case ProviderS3:
		return NewS3Adapter(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown image host provider %q", cfg.ImageHost.Provider)
	}
}
