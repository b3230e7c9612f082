package productcontroller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tienchung1704/real-dinhanstore/cache"
	logx "github.com/tienchung1704/real-dinhanstore/logger"
	"gorm.io/gorm"
)

const (
	productsKeyPrefix   = "products:"
	categoriesKeyPrefix = "categories:"
)

// Catalog carries what the product and category handlers share. Public
// listings are cached for TTL and dropped on every catalog write.
type Catalog struct {
	DB    *gorm.DB
	Cache cache.Cache
	TTL   time.Duration
}

func NewCatalog(db *gorm.DB, c cache.Cache, ttl time.Duration) *Catalog {
	if c == nil {
		c = cache.Nop{}
	}
	return &Catalog{DB: db, Cache: c, TTL: ttl}
}

// cached serves key from the cache or computes, stores and returns it.
func (cat *Catalog) cached(ctx context.Context, key string, dst any, load func() error) error {
	if err := cache.GetJSON(ctx, cat.Cache, key, dst); err == nil {
		return nil
	} else if !errors.Is(err, cache.ErrMiss) {
		logx.Warn().Err(err).Str("key", key).Msg("catalog cache read")
	}
	if err := load(); err != nil {
		return err
	}
	if err := cache.SetJSON(ctx, cat.Cache, key, dst, cat.TTL); err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("catalog cache write")
	}
	return nil
}

// Invalidate drops every cached listing.
func (cat *Catalog) Invalidate(ctx context.Context) {
	for _, prefix := range []string{productsKeyPrefix, categoriesKeyPrefix} {
		if err := cat.Cache.DeletePrefix(ctx, prefix); err != nil {
			logx.Warn().Err(err).Str("prefix", prefix).Msg("catalog cache invalidate")
		}
	}
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}
