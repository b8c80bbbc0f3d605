package galleria

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// StorageGateway wraps the external object-storage service holding the image
// bucket. Implementations are expected to be safe for concurrent use; one
// shared gateway is constructed at startup and injected into the service.
//
// All methods accept a context for cancellation and timeout control.
type StorageGateway interface {
	// List returns up to limit objects whose keys start with prefix.
	// An empty bucket or prefix with no objects yields an empty slice, not
	// an error.
	List(ctx context.Context, prefix string, limit int) ([]StorageObject, error)

	// Upload stores content at the given key. size may be -1 when unknown.
	Upload(ctx context.Context, path string, content io.Reader, size int64, contentType string) error

	// Remove deletes the given keys in one bulk call. Objects the provider
	// could not delete are reported individually; err covers transport-level
	// failure of the call itself.
	Remove(ctx context.Context, paths []string) ([]RemoveFailure, error)

	// PublicURL derives the stable, unauthenticated read URL for a key.
	// The derivation is deterministic and performs no network call.
	PublicURL(path string) string
}

// BulkRemoveError reports a partially failed folder delete. Removed counts
// the objects the provider did delete; Failures names the survivors.
type BulkRemoveError struct {
	Folder   string
	Removed  int
	Failures []RemoveFailure
}

func (e *BulkRemoveError) Error() string {
	paths := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		paths = append(paths, f.Path)
	}
	return fmt.Sprintf("delete folder %s: %d object(s) not removed: %s",
		e.Folder, len(e.Failures), strings.Join(paths, ", "))
}

func (e *BulkRemoveError) Unwrap() error { return ErrUpstream }

// GalleryService implements folder and image operations over a
// StorageGateway. Folders are synthetic: the key segment before the first
// path separator, recomputed on every listing.
type GalleryService struct {
	gateway     StorageGateway
	listLimit   int
	callTimeout time.Duration
}

// GalleryConfig holds configuration options for GalleryService.
type GalleryConfig struct {
	ListLimit   int           // Maximum objects per listing call (default: 1000)
	CallTimeout time.Duration // Deadline per gateway call (default: 15s)
}

func NewGalleryService(gateway StorageGateway, cfg GalleryConfig) (*GalleryService, error) {
	if gateway == nil {
		return nil, errors.New("new gallery service: gateway is required")
	}

	listLimit := cfg.ListLimit
	if listLimit <= 0 {
		listLimit = 1000
	}
	callTimeout := cfg.CallTimeout
	if callTimeout <= 0 {
		callTimeout = 15 * time.Second
	}

	return &GalleryService{
		gateway:     gateway,
		listLimit:   listLimit,
		callTimeout: callTimeout,
	}, nil
}

// callCtx bounds one gateway call.
func (s *GalleryService) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.callTimeout)
}

// classify maps an external-call failure to an error kind. Deadline expiry
// is a distinct kind so callers can tell a slow provider from a broken one.
// Errors that already carry a domain sentinel pass through unchanged.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict),
		errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnauthorized):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
	}
}

// ListFolders lists distinct top-level folder names in the bucket.
//
// The folder is the key segment before the first "/"; an object with no
// separator is reported as a pseudo-folder under its full key. Names are
// deduplicated in first-occurrence order, which follows the provider's
// listing order and is not guaranteed stable across calls. Empty or
// whitespace-only segments are dropped. An empty bucket returns an empty
// slice, not an error.
func (s *GalleryService) ListFolders(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	cctx, cancel := s.callCtx(ctx)
	defer cancel()

	objects, err := s.gateway.List(cctx, "", s.listLimit)
	if err != nil {
		return nil, classify("list folders", err)
	}

	folders := make([]string, 0, len(objects))
	seen := make(map[string]struct{}, len(objects))

	for _, obj := range objects {
		segment, _, _ := strings.Cut(obj.Key, "/")
		segment = strings.TrimSpace(segment)
		if segment == "" {
			slog.Debug("skipping object with empty folder segment", "key", obj.Key)
			continue
		}
		if _, ok := seen[segment]; ok {
			continue
		}
		seen[segment] = struct{}{}
		folders = append(folders, segment)
	}

	return folders, nil
}

// ListImages lists the objects under folder as name/URL pairs in listing
// order. The folder name is validated before any storage call. A folder with
// no objects is ErrNotFound, distinct from a transport failure.
func (s *GalleryService) ListImages(ctx context.Context, folder string) ([]ImageDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	if !IsValidFolderName(folder) {
		return nil, fmt.Errorf("list images: %w: invalid folder name %q", ErrInvalidInput, folder)
	}

	cctx, cancel := s.callCtx(ctx)
	defer cancel()

	objects, err := s.gateway.List(cctx, folder+"/", s.listLimit)
	if err != nil {
		return nil, classify("list images "+folder, err)
	}

	if len(objects) == 0 {
		return nil, fmt.Errorf("list images %s: %w", folder, ErrNotFound)
	}

	images := make([]ImageDescriptor, 0, len(objects))
	for _, obj := range objects {
		name := strings.TrimPrefix(obj.Key, folder+"/")
		if name == "" {
			continue
		}
		images = append(images, ImageDescriptor{
			Name: name,
			URL:  s.gateway.PublicURL(folder + "/" + name),
		})
	}

	return images, nil
}

// DeleteFolder removes every object under folder in one bulk call and
// returns the number removed. An empty or absent folder is ErrNotFound, not
// a no-op success. The bulk remove is not transactional: when the provider
// fails on a subset, the returned *BulkRemoveError names the surviving paths
// and the count that did go through.
func (s *GalleryService) DeleteFolder(ctx context.Context, folder string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("delete folder: %w", err)
	}

	if !IsValidFolderName(folder) {
		return 0, fmt.Errorf("delete folder: %w: invalid folder name %q", ErrInvalidInput, folder)
	}

	cctx, cancel := s.callCtx(ctx)
	defer cancel()

	objects, err := s.gateway.List(cctx, folder+"/", s.listLimit)
	if err != nil {
		return 0, classify("delete folder "+folder, err)
	}

	if len(objects) == 0 {
		return 0, fmt.Errorf("delete folder %s: %w", folder, ErrNotFound)
	}

	paths := make([]string, 0, len(objects))
	for _, obj := range objects {
		paths = append(paths, obj.Key)
	}

	rctx, rcancel := s.callCtx(ctx)
	defer rcancel()

	failures, err := s.gateway.Remove(rctx, paths)
	if err != nil {
		return 0, classify("delete folder "+folder, err)
	}

	if len(failures) > 0 {
		return len(paths) - len(failures), &BulkRemoveError{
			Folder:   folder,
			Removed:  len(paths) - len(failures),
			Failures: failures,
		}
	}

	return len(paths), nil
}

// DeleteImage removes a single object. Both name segments are validated
// before any storage call. Removing an absent object succeeds; the provider
// does not distinguish it.
func (s *GalleryService) DeleteImage(ctx context.Context, folder, image string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}

	if !IsValidFolderName(folder) {
		return fmt.Errorf("delete image: %w: invalid folder name %q", ErrInvalidInput, folder)
	}
	if !IsValidImageName(image) {
		return fmt.Errorf("delete image: %w: invalid image name %q", ErrInvalidInput, image)
	}

	cctx, cancel := s.callCtx(ctx)
	defer cancel()

	path := folder + "/" + image
	failures, err := s.gateway.Remove(cctx, []string{path})
	if err != nil {
		return classify("delete image "+path, err)
	}
	if len(failures) > 0 {
		return fmt.Errorf("delete image %s: %w: %s", path, ErrUpstream, failures[0].Message)
	}

	return nil
}

// Upload stores content under folder and returns its public URL.
//
// The stored key is "<folder>/<unix-millis>-<name>", which keeps concurrent
// uploads of the same filename from colliding. The client-supplied filename
// is reduced to characters the image-name pattern accepts; anything else
// becomes "_".
func (s *GalleryService) Upload(ctx context.Context, folder, filename, contentType string, content io.Reader, size int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}

	if folder == "" || content == nil {
		return "", fmt.Errorf("upload: %w: folder and image are required", ErrInvalidInput)
	}

	if !IsValidFolderName(folder) {
		return "", fmt.Errorf("upload: %w: invalid folder name %q", ErrInvalidInput, folder)
	}

	name := sanitizeObjectName(filename)
	if name == "" {
		return "", fmt.Errorf("upload: %w: invalid file name %q", ErrInvalidInput, filename)
	}

	cctx, cancel := s.callCtx(ctx)
	defer cancel()

	path := fmt.Sprintf("%s/%d-%s", folder, time.Now().UnixMilli(), name)
	if err := s.gateway.Upload(cctx, path, content, size, contentType); err != nil {
		return "", classify("upload "+path, err)
	}

	return s.gateway.PublicURL(path), nil
}

// sanitizeObjectName strips any path components from a client filename and
// replaces characters outside [A-Za-z0-9_.-] with "_". Returns "" when
// nothing usable remains.
func sanitizeObjectName(filename string) string {
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		filename = filename[i+1:]
	}

	var b strings.Builder
	for _, r := range filename {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	name := b.String()
	if strings.Trim(name, "_.") == "" {
		return ""
	}
	return name
}
