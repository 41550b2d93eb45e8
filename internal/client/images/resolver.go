// Package images uploads discovery pictures stored on the device to object
// storage, so that remote documents only ever carry remote URIs.
package images

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dmitrijs2005/scratchmap/internal/client/connectivity"
	"github.com/dmitrijs2005/scratchmap/internal/client/models"
	"github.com/dmitrijs2005/scratchmap/internal/client/remote"
	"github.com/dmitrijs2005/scratchmap/internal/logging"
	"github.com/dmitrijs2005/scratchmap/internal/netx"
)

// Presigner hands out a one-shot upload URL and the URI the object will be
// readable at afterwards.
type Presigner interface {
	PresignImageUpload(ctx context.Context, contentType, extension string) (uploadURL, objectURI string, err error)
}

// Resolver implements remote.ImageResolver. Uploaded paths are remembered
// so a file is sent at most once per process.
type Resolver struct {
	presigner Presigner
	online    connectivity.Checker
	client    *http.Client
	logger    logging.Logger

	mu       sync.Mutex
	uploaded map[string]string
}

func NewResolver(p Presigner, online connectivity.Checker, client *http.Client, l logging.Logger) *Resolver {
	return &Resolver{
		presigner: p,
		online:    online,
		client:    client,
		logger:    l.With("module", "images"),
		uploaded:  map[string]string{},
	}
}

func contentType(path string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

// Resolve returns ref unchanged when it is already remote. A local file that
// no longer exists resolves to "" so the discovery is pushed without image.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	if ref == "" || models.IsRemoteURI(ref) {
		return ref, nil
	}

	r.mu.Lock()
	uri, ok := r.uploaded[ref]
	r.mu.Unlock()
	if ok {
		return uri, nil
	}

	data, err := os.ReadFile(ref)
	if errors.Is(err, os.ErrNotExist) {
		r.logger.Warn(ctx, "local image is gone, pushing without it", "path", ref)
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	if r.online != nil && !r.online.Online() {
		return "", remote.ErrOffline
	}

	ct := contentType(ref, data)
	uploadURL, objectURI, err := r.presigner.PresignImageUpload(ctx, ct, filepath.Ext(ref))
	if err != nil {
		return "", fmt.Errorf("presign image upload: %w", err)
	}
	if err := netx.UploadToPresignedURL(ctx, r.client, uploadURL, ct, data); err != nil {
		return "", err
	}

	r.mu.Lock()
	r.uploaded[ref] = objectURI
	r.mu.Unlock()

	r.logger.Info(ctx, "image uploaded", "path", ref, "uri", objectURI, "bytes", len(data))
	return objectURI, nil
}
