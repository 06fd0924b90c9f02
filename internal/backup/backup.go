// Package backup stores timestamped document backups in an object store.
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"bookkeeper/internal/core"
	"bookkeeper/internal/export"
)

// ErrNoBackups is returned by Latest when the prefix holds no backup.
var ErrNoBackups = errors.New("no backups found")

// ObjectStore is the subset of a blob store the backups need.
type ObjectStore interface {
	Put(ctx context.Context, name string, r io.Reader) error
	Get(ctx context.Context, name string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

const objectTimeLayout = "20060102T150405Z"

type Service struct {
	objects ObjectStore
	prefix  string
	now     func() time.Time
}

func NewService(objects ObjectStore, prefix string) *Service {
	return &Service{objects: objects, prefix: prefix, now: time.Now}
}

// ObjectName returns the name a backup taken at t is stored under. Names
// sort lexically in time order.
func (s *Service) ObjectName(t time.Time) string {
	return s.prefix + "bookkeeper-" + t.UTC().Format(objectTimeLayout) + ".json"
}

// Upload writes doc as a new backup object and returns its name.
func (s *Service) Upload(ctx context.Context, doc core.Document) (string, error) {
	var buf bytes.Buffer
	if err := export.WriteBackup(&buf, doc); err != nil {
		return "", err
	}
	name := s.ObjectName(s.now())
	if err := s.objects.Put(ctx, name, &buf); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	slog.InfoContext(ctx, "Backup uploaded",
		"object", name,
		"bytes", buf.Len(),
		"transactions", len(doc.Transactions))
	return name, nil
}

// Latest returns the name of the newest backup.
func (s *Service) Latest(ctx context.Context) (string, error) {
	names, err := s.objects.List(ctx, s.prefix)
	if err != nil {
		return "", fmt.Errorf("list backups: %w", err)
	}
	var backups []string
	for _, n := range names {
		if strings.HasSuffix(n, ".json") {
			backups = append(backups, n)
		}
	}
	if len(backups) == 0 {
		return "", ErrNoBackups
	}
	sort.Strings(backups)
	return backups[len(backups)-1], nil
}

// Download reads and parses the named backup.
func (s *Service) Download(ctx context.Context, name string) (core.Document, error) {
	rc, err := s.objects.Get(ctx, name)
	if err != nil {
		return core.Document{}, fmt.Errorf("download %s: %w", name, err)
	}
	defer rc.Close()
	return export.ReadBackup(rc)
}

// DownloadLatest is Latest followed by Download.
func (s *Service) DownloadLatest(ctx context.Context) (string, core.Document, error) {
	name, err := s.Latest(ctx)
	if err != nil {
		return "", core.Document{}, err
	}
	doc, err := s.Download(ctx, name)
	return name, doc, err
}
