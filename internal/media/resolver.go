// Package media turns stored media references into URLs a browser can fetch.
package media

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ManuGH/vidfolio/internal/catalog"
	xglog "github.com/ManuGH/vidfolio/internal/log"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Resolver maps stored URLs to playable URLs.
type Resolver interface {
	Resolve(ctx context.Context, raw string) string
}

// Passthrough returns every URL unchanged.
type Passthrough struct{}

// Resolve implements Resolver.
func (Passthrough) Resolve(_ context.Context, raw string) string { return raw }

// S3Config configures presigning.
type S3Config struct {
	Region       string
	Endpoint     string
	UsePathStyle bool
	Expiry       time.Duration
}

// S3Resolver presigns s3://bucket/key references and passes everything else through.
type S3Resolver struct {
	presign *s3.PresignClient
	expiry  time.Duration
}

// NewS3Resolver loads AWS credentials from the default chain.
func NewS3Resolver(ctx context.Context, cfg S3Config) (*S3Resolver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newS3Resolver(s3.NewFromConfig(awsCfg, s3Options(cfg)), cfg.Expiry), nil
}

func s3Options(cfg S3Config) func(*s3.Options) {
	return func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}
}

func newS3Resolver(client *s3.Client, expiry time.Duration) *S3Resolver {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &S3Resolver{presign: s3.NewPresignClient(client), expiry: expiry}
}

// Resolve implements Resolver. A reference that fails to presign resolves to "".
func (r *S3Resolver) Resolve(ctx context.Context, raw string) string {
	bucket, key, ok := ParseS3URL(raw)
	if !ok {
		return raw
	}
	req, err := r.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(r.expiry))
	if err != nil {
		logger := xglog.WithComponentFromContext(ctx, "media")
		logger.Warn().
			Err(err).
			Str("bucket", bucket).
			Str("key", key).
			Str(xglog.FieldEvent, "media.presign_failed").
			Msg("presign failed")
		return ""
	}
	return req.URL
}

// ParseS3URL splits s3://bucket/key.
func ParseS3URL(raw string) (bucket, key string, ok bool) {
	if !strings.HasPrefix(raw, "s3://") {
		return "", "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", "", false
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", false
	}
	return u.Host, key, true
}

// Video returns a copy of v with every media URL resolved.
func Video(ctx context.Context, r Resolver, v catalog.Video) catalog.Video {
	if r == nil {
		return v
	}
	v.VideoURL = r.Resolve(ctx, v.VideoURL)
	v.ThumbnailURL = resolveOptional(ctx, r, v.ThumbnailURL)
	if len(v.Renditions) > 0 {
		out := make(map[string]string, len(v.Renditions))
		for q, u := range v.Renditions {
			if resolved := r.Resolve(ctx, u); resolved != "" {
				out[q] = resolved
			}
		}
		v.Renditions = out
	}
	if v.Category != nil {
		c := Category(ctx, r, *v.Category)
		v.Category = &c
	}
	return v
}

// Videos resolves a slice in place of a copy.
func Videos(ctx context.Context, r Resolver, in []catalog.Video) []catalog.Video {
	out := make([]catalog.Video, len(in))
	for i := range in {
		out[i] = Video(ctx, r, in[i])
	}
	return out
}

// Category returns a copy of c with its banner resolved.
func Category(ctx context.Context, r Resolver, c catalog.Category) catalog.Category {
	if r == nil {
		return c
	}
	c.BannerURL = resolveOptional(ctx, r, c.BannerURL)
	return c
}

func resolveOptional(ctx context.Context, r Resolver, raw string) string {
	if raw == "" {
		return ""
	}
	return r.Resolve(ctx, raw)
}
