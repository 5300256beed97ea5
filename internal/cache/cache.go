// Package cache holds finished reports keyed by run, in process and in Redis.
package cache

import (
	"context"
	"time"

	"github.com/stemsi/exstem-progress/internal/model"
)

// ReportCache stores reports under string keys. A miss is reported as
// (nil, false, nil); err is reserved for backend failures.
type ReportCache interface {
	Get(ctx context.Context, key string) (*model.Report, bool, error)
	Set(ctx context.Context, key string, report *model.Report, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
