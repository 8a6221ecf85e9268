package questionnaire

import (
	"strings"

	"proposal-intake-be/internal/pkg/logger"
)

// FinalSentinelPrefix marks terminal question ids that are not part of any declared path.
const FinalSentinelPrefix = "FINAL_"

// PathCache is the slice of conversation metadata the detector needs.
// CachePath is called when no path has been cached yet.
type PathCache interface {
	Selection() (sector, subsector string)
	CachedPath() []string
	CachePath(path []string)
}

type Detector struct {
	resolver *Resolver
	logger   logger.ILogger
}

func NewDetector(resolver *Resolver, logger logger.ILogger) *Detector {
	return &Detector{resolver: resolver, logger: logger}
}

// EnsurePath returns the cached path, resolving and caching it first when missing.
func (d *Detector) EnsurePath(meta PathCache) []string {
	path := meta.CachedPath()
	if len(path) > 0 {
		return path
	}
	sector, subsector := meta.Selection()
	path = d.resolver.Resolve(sector, subsector)
	meta.CachePath(path)
	d.logger.Debug("QUESTIONNAIRE", "Questionnaire path resolved", map[string]interface{}{
		"sector":    sector,
		"subsector": subsector,
		"length":    len(path),
	})
	return path
}

// IsLast reports whether currentID is the final question of the conversation's path.
// Anything ambiguous answers false, except ids carrying the FINAL_ sentinel.
func (d *Detector) IsLast(currentID string, meta PathCache) bool {
	if strings.TrimSpace(currentID) == "" {
		return false
	}

	path := d.EnsurePath(meta)
	if len(path) == 0 {
		d.logger.Warn("QUESTIONNAIRE", "Empty questionnaire path, cannot detect completion", map[string]interface{}{
			"question_id": currentID,
		})
		return false
	}

	idx := indexOf(path, currentID)
	if idx < 0 {
		sentinel := strings.HasPrefix(currentID, FinalSentinelPrefix)
		d.logger.Warn("QUESTIONNAIRE", "Question id not found in path", map[string]interface{}{
			"question_id": currentID,
			"path_length": len(path),
			"sentinel":    sentinel,
		})
		return sentinel
	}

	if idx == len(path)-1 {
		d.logger.Info("QUESTIONNAIRE", "Last question reached", map[string]interface{}{
			"question_id": currentID,
			"position":    idx + 1,
			"total":       len(path),
		})
		return true
	}
	return false
}

// NextQuestion returns the first id after currentID that has no answer yet.
// When currentID is not in the path the search starts at the beginning.
func NextQuestion(path []string, currentID string, answered map[string]string) (string, bool) {
	start := 0
	if idx := indexOf(path, currentID); idx >= 0 {
		start = idx + 1
	}
	for i := start; i < len(path); i++ {
		if _, ok := answered[path[i]]; !ok {
			return path[i], true
		}
	}
	return "", false
}

// FirstUnanswered scans the whole path from the start.
func FirstUnanswered(path []string, answered map[string]string) (string, bool) {
	for _, id := range path {
		if _, ok := answered[id]; !ok {
			return id, true
		}
	}
	return "", false
}

func indexOf(path []string, id string) int {
	for i, v := range path {
		if v == id {
			return i
		}
	}
	return -1
}
