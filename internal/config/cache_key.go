package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ReportGenerationKey holds a counter bumped after every import.
// Report page keys embed its value so old pages stop being read.
func (r *CacheKeyStruct) ReportGenerationKey() string {
	return "report:generation"
}

// ReportPageKey returns the cache key for one report page.
// fingerprint is the normalized query (see model.StudentQuery.Fingerprint).
func (r *CacheKeyStruct) ReportPageKey(generation int64, fingerprint string) string {
	return fmt.Sprintf("report:%d:page:%s", generation, fingerprint)
}

// ImportJobKey returns the key holding an import job's JSON state.
func (r *CacheKeyStruct) ImportJobKey(jobID string) string {
	return fmt.Sprintf("import:job:%s", jobID)
}

var CacheKey = NewCacheKeyStruct()
