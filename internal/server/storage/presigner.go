// Package storage hands out presigned S3 upload URLs for discovery images.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/scratchmap/internal/server/config"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}

	now = time.Now
)

// Presigner issues one-shot PUT URLs into the configured bucket. The S3
// client is built lazily on first use.
type Presigner struct {
	config *sc.Config

	mu     sync.Mutex
	client *s3.PresignClient
}

func NewPresigner(cfg *sc.Config) *Presigner {
	return &Presigner{config: cfg}
}

func (p *Presigner) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(p.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			p.config.S3RootUser,
			p.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(p.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})
	p.client = s3.NewPresignClient(client)
	return p.client, nil
}

// ObjectKey places an upload under the user's prefix, partitioned by day.
func ObjectKey(userID, extension string, at time.Time) string {
	ext := strings.ToLower(extension)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join("images", userID, at.Format("2006/01/02"), uuid.NewString()+ext)
}

// PresignImageUpload returns a PUT URL valid for PresignExpiry and the
// s3:// URI the object is readable at afterwards.
func (p *Presigner) PresignImageUpload(ctx context.Context, userID, contentType, extension string) (string, string, error) {
	pc, err := p.presignClient(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := p.config.S3Bucket
	key := ObjectKey(userID, extension, now())

	in := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	req, err := presignPutObject(pc, ctx, in, s3.WithPresignExpires(p.config.PresignExpiry))
	if err != nil {
		return "", "", fmt.Errorf("presign: %w", err)
	}

	return req.URL, "s3://" + bucket + "/" + key, nil
}
