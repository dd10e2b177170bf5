package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("anscrutins.store")

// ErrInvalidPath is returned when a source url cannot be mapped under the data root.
var ErrInvalidPath = errors.New("invalid artifact path")

// Store persists extracted records as json files under a data root. The presence of a file
// is the only completion marker, a record is never rewritten once it exists.
//
// Writes are atomic but the store does not lock, only one process should write to a
// data root at a time.
type Store struct {
	root string
}

func New(root string) Store {
	return Store{root: filepath.Clean(root)}
}

func (s Store) Root() string {
	return s.root
}

// ListingPath is where the vote listing of a legislature is stored.
func (s Store) ListingPath(legislature int) string {
	return filepath.Join(s.root, "dyn", fmt.Sprint(legislature), "scrutins.json")
}

// PathForUrl maps the path of a source url (absolute or site relative) to its artifact,
// ex. /dyn/17/scrutins/3186 is stored at <root>/dyn/17/scrutins/3186.json.
// The query string is not part of the mapping.
func (s Store) PathForUrl(sourceUrl string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(sourceUrl))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidPath, sourceUrl, err)
	}

	segments := strings.Split(parsed.Path, "/")
	for _, segment := range segments {
		if segment == ".." {
			return "", fmt.Errorf("%w: %q leaves the data root", ErrInvalidPath, sourceUrl)
		}
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+parsed.Path), "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("%w: %q has no path", ErrInvalidPath, sourceUrl)
	}

	return filepath.Join(s.root, filepath.FromSlash(cleaned)+".json"), nil
}

// IsComplete reports whether an artifact already exists, its contents are not checked.
func (s Store) IsComplete(artifact string) bool {
	_, err := os.Stat(artifact)
	return err == nil
}

// Put serializes a record to an artifact. The record is written to a temporary file in the
// destination directory then renamed into place, so a failed write leaves nothing behind.
func (s Store) Put(ctx context.Context, artifact string, record any) error {
	_, span := tracer.Start(ctx, "store:put")
	defer span.End()
	span.SetAttributes(attribute.String("store.path", artifact))

	serialized, err := json.Marshal(record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize record")
		return err
	}
	err = writeFileAtomic(artifact, serialized)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write artifact")
		return err
	}
	span.SetAttributes(attribute.Int("store.size", len(serialized)))
	return nil
}

// Get reads an artifact back into `out`.
func (s Store) Get(ctx context.Context, artifact string, out any) error {
	_, span := tracer.Start(ctx, "store:get")
	defer span.End()
	span.SetAttributes(attribute.String("store.path", artifact))

	serialized, err := os.ReadFile(artifact)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read artifact")
		return err
	}
	err = json.Unmarshal(serialized, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize artifact")
		return fmt.Errorf("parse %s: %w", artifact, err)
	}
	return nil
}

func writeFileAtomic(dst string, contents []byte) error {
	dir := filepath.Dir(dst)
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp_"+filepath.Base(dst)+"_*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(contents); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, dst)
}
