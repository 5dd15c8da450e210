package services

import (
	"context"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/AleksKim19/testvideospkbot/internal/catalog"
	"github.com/AleksKim19/testvideospkbot/internal/metrics"
	"github.com/AleksKim19/testvideospkbot/internal/models"
)

const (
	VariantLoad    = "load"
	VariantRefresh = "refresh"
)

type Result struct {
	Added      int  `json:"added"`
	Removed    int  `json:"removed"`
	Total      int  `json:"total"`
	DirMissing bool `json:"dir_missing"`
}

// Reconciler makes the catalog match the contents of the media directory.
// Passes are serialized: each one applies exactly one directory snapshot.
type Reconciler struct {
	store         *catalog.Store
	scanner       *MediaScanner
	urlPrefix     string
	keepOnMissing bool
	log           zerolog.Logger

	passMu sync.Mutex
}

type ReconcilerOptions struct {
	URLPrefix string

	// KeepOnMissingDir leaves the catalog untouched when the media
	// directory is gone instead of removing every record.
	KeepOnMissingDir bool
}

func NewReconciler(store *catalog.Store, scanner *MediaScanner, opts ReconcilerOptions, log zerolog.Logger) *Reconciler {
	prefix := strings.TrimRight(opts.URLPrefix, "/")
	if prefix == "" {
		prefix = "/videos"
	}
	return &Reconciler{
		store:         store,
		scanner:       scanner,
		urlPrefix:     prefix,
		keepOnMissing: opts.KeepOnMissingDir,
		log:           log.With().Str("component", "reconciler").Logger(),
	}
}

// Load is the startup pass: it appends unseen files and never removes.
func (r *Reconciler) Load(ctx context.Context) (Result, error) {
	return r.run(ctx, VariantLoad)
}

// Refresh removes records whose file is gone and appends unseen files.
func (r *Reconciler) Refresh(ctx context.Context) (Result, error) {
	return r.run(ctx, VariantRefresh)
}

func (r *Reconciler) run(ctx context.Context, variant string) (res Result, err error) {
	r.passMu.Lock()
	defer r.passMu.Unlock()

	start := time.Now()
	defer func() {
		metrics.RecordReconcile(variant, err, res.Added, res.Removed, res.Total, time.Since(start).Seconds())
	}()

	snap, err := r.scanner.Scan(ctx)
	if err != nil {
		return Result{Total: r.store.Len()}, err
	}
	res.DirMissing = snap.Missing

	if snap.Missing && r.keepOnMissing {
		r.log.Warn().Str("dir", r.scanner.Dir()).Msg("media directory missing, keeping last known catalog")
		res.Total = r.store.Len()
		return res, nil
	}

	present := make(map[string]bool, len(snap.Files))
	for _, name := range snap.Files {
		present[DerivePath(r.urlPrefix, name)] = true
	}

	err = r.store.Update(func(tx *catalog.Tx) error {
		if variant == VariantRefresh {
			removed := tx.Retain(func(v models.Video) bool { return present[v.URL] })
			res.Removed = len(removed)
			for _, v := range removed {
				r.log.Debug().Int("id", v.ID).Str("url", v.URL).Msg("video removed")
			}
		}

		for _, name := range snap.Files {
			url := DerivePath(r.urlPrefix, name)
			if tx.Has(url) {
				continue
			}
			v := NewVideoRecord(tx.AllocateID(), name, url)
			tx.Append(v)
			res.Added++
			r.log.Debug().Int("id", v.ID).Str("url", v.URL).Msg("video added")
		}

		res.Total = tx.Len()
		return nil
	})
	if err != nil {
		return Result{Total: r.store.Len()}, err
	}

	if res.Added > 0 || res.Removed > 0 {
		r.log.Info().
			Str("variant", variant).
			Int("added", res.Added).
			Int("removed", res.Removed).
			Int("total", res.Total).
			Msg("catalog reconciled")
	}
	if snap.Missing {
		r.log.Warn().Str("dir", r.scanner.Dir()).Msg("media directory missing, treated as empty")
	}
	return res, nil
}

func NewVideoRecord(id int, fileName, url string) models.Video {
	return models.Video{
		ID:         id,
		Title:      TitleFromFile(fileName),
		URL:        url,
		City:       models.CityUnspecified,
		UploadedBy: models.UploadedByManual,
	}
}

// DerivePath is the URL a file is served under; it doubles as the key that
// joins disk files to catalog records.
func DerivePath(prefix, fileName string) string {
	return path.Join("/", prefix, fileName)
}

// TitleFromFile strips the last extension from a file name.
func TitleFromFile(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}
