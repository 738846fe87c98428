package utils

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/bloghub/models"
)

// orphanGrace protects files whose post row has not been committed yet.
const orphanGrace = 10 * time.Minute

// StartMediaCleaner periodically removes post images that no post references
// any more (replaced on edit, or left behind by a deleted post). It stops when ctx ends.
func StartMediaCleaner(ctx context.Context, db *gorm.DB, media *MediaStorage, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := CleanOrphanMedia(ctx, db, media, time.Now())
				if err != nil {
					Sugar.Warnf("media cleaner failed: %v", err)
					continue
				}
				if n > 0 {
					Sugar.Infof("media cleaner removed %d orphan files", n)
				}
			}
		}
	}()
}

// CleanOrphanMedia deletes unreferenced files older than the grace period and
// returns how many were removed.
func CleanOrphanMedia(ctx context.Context, db *gorm.DB, media *MediaStorage, now time.Time) (int, error) {
	dir := filepath.Join(media.Root, postImageDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	var referenced []string
	if err := db.WithContext(ctx).Model(&models.Post{}).Where("image <> ''").Pluck("image", &referenced).Error; err != nil {
		return 0, err
	}
	keep := make(map[string]struct{}, len(referenced))
	for _, rel := range referenced {
		keep[rel] = struct{}{}
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		rel := path.Join(postImageDir, e.Name())
		if _, ok := keep[rel]; ok {
			continue
		}
		info, err := e.Info()
		if err != nil || now.Sub(info.ModTime()) < orphanGrace {
			continue
		}
		media.Remove(rel)
		removed++
	}
	return removed, nil
}
