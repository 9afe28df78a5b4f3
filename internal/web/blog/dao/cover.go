package dao

import (
	"context"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Laisky/envo-blog/library/log"
)

// MaxCoverSize caps an uploaded cover image, in bytes.
const MaxCoverSize = 10 << 20

var coverExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// objectPutter is the part of *minio.Client used for uploads.
type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string,
		reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// S3Config locates the bucket cover images are written to.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	// Prefix is prepended to every object key.
	Prefix string
	// PublicURL is the base URL the bucket is served from.
	PublicURL string
	Secure    bool
}

// Covers stores post cover images in S3 compatible object storage.
type Covers struct {
	logger logSDK.Logger
	cli    objectPutter
	cfg    S3Config
}

// NewCovers connects to the object storage described by cfg.
func NewCovers(logger logSDK.Logger, cfg S3Config) (*Covers, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("s3 endpoint and bucket are required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, errors.Wrap(err, "new minio client")
	}

	return newCovers(logger, cli, cfg), nil
}

func newCovers(logger logSDK.Logger, cli objectPutter, cfg S3Config) *Covers {
	if logger == nil {
		logger = log.Logger.Named("covers")
	}
	if cfg.PublicURL == "" {
		scheme := "http://"
		if cfg.Secure {
			scheme = "https://"
		}
		cfg.PublicURL = scheme + cfg.Endpoint + "/" + cfg.Bucket
	}

	return &Covers{logger: logger, cli: cli, cfg: cfg}
}

// coverObjectKey builds "<prefix>/covers/<yyyy>/<mm>/<uuid><ext>".
func (d *Covers) coverObjectKey(ext string) string {
	now := gutils.Clock.GetUTCNow()
	return path.Join(
		strings.Trim(d.cfg.Prefix, "/"),
		"covers",
		now.Format("2006"),
		now.Format("01"),
		uuid.New().String()+ext,
	)
}

// Upload writes one cover image and returns the public URL to store on the post.
// It accepts the client file name for its extension, the reader and its size.
func (d *Covers) Upload(ctx context.Context, fileName string, r io.Reader, size int64) (string, error) {
	if size <= 0 || size > MaxCoverSize {
		return "", errors.Errorf("cover size must be within (0~%d] bytes", MaxCoverSize)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if _, ok := coverExts[ext]; !ok {
		return "", errors.Errorf("unsupported cover image type %q", ext)
	}

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := d.coverObjectKey(ext)
	if _, err := d.cli.PutObject(ctx, d.cfg.Bucket, key, r, size,
		minio.PutObjectOptions{
			ContentType: contentType,
			UserMetadata: map[string]string{
				"original-filename": filepath.Base(fileName),
			},
		}); err != nil {
		return "", errors.Wrap(err, "put cover object")
	}

	d.logger.Info("upload cover", zap.String("objkey", key), zap.Int64("size", size))
	return strings.TrimSuffix(d.cfg.PublicURL, "/") + "/" + key, nil
}
