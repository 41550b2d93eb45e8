package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/scratchmap/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *sc.Config {
	return &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "scratchmap",
		PresignExpiry:  15 * time.Minute,
	}
}

func TestObjectKey(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	k := ObjectKey("u1", ".JPG", at)
	assert.True(t, strings.HasPrefix(k, "images/u1/2024/05/01/"), k)
	assert.True(t, strings.HasSuffix(k, ".jpg"), k)

	assert.True(t, strings.HasSuffix(ObjectKey("u1", "png", at), ".png"))
	assert.NotEqual(t, ObjectKey("u1", "", at), ObjectKey("u1", "", at))
}

func TestPresignImageUpload_RealSigner(t *testing.T) {
	p := NewPresigner(testConfig())

	url, uri, err := p.PresignImageUpload(context.Background(), "u1", "image/png", ".png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://127.0.0.1:9000/scratchmap/images/u1/"), url)
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.True(t, strings.HasPrefix(uri, "s3://scratchmap/images/u1/"), uri)
	assert.True(t, strings.HasSuffix(uri, ".png"), uri)
}

func TestPresignImageUpload_Seams(t *testing.T) {
	origLoad, origNewS3, origPut := loadDefaultAWSConfig, newS3ClientFromConfig, presignPutObject
	t.Cleanup(func() {
		loadDefaultAWSConfig, newS3ClientFromConfig, presignPutObject = origLoad, origNewS3, origPut
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		return aws.Config{}, nil
	}

	var baseEndpoint string
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		baseEndpoint = aws.ToString(opts.BaseEndpoint)
		return &s3.Client{}
	}

	var gotIn *s3.PutObjectInput
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		gotIn = in
		return &v4.PresignedHTTPRequest{URL: "https://put"}, nil
	}

	p := NewPresigner(testConfig())
	url, uri, err := p.PresignImageUpload(context.Background(), "u1", "image/jpeg", ".jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://put", url)
	assert.Equal(t, "http://127.0.0.1:9000", baseEndpoint)
	assert.Equal(t, "scratchmap", aws.ToString(gotIn.Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(gotIn.ContentType))
	assert.Equal(t, "s3://scratchmap/"+aws.ToString(gotIn.Key), uri)

	presignPutObject = func(*s3.PresignClient, context.Context, *s3.PutObjectInput, ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("sign failed")
	}
	_, _, err = p.PresignImageUpload(context.Background(), "u1", "", "")
	require.Error(t, err)
}

func TestPresignImageUpload_ConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })
	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}

	_, _, err := NewPresigner(testConfig()).PresignImageUpload(context.Background(), "u1", "", "")
	require.Error(t, err)
}
