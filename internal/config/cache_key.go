package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// LatestReportKey returns the cache key for the most recent report
func (r *CacheKeyStruct) LatestReportKey() string {
	return "report:latest"
}

// ReportKey returns the cache key for the report of a run
func (r *CacheKeyStruct) ReportKey(runID string) string {
	return fmt.Sprintf("report:%s", runID)
}

var CacheKey = NewCacheKeyStruct()
