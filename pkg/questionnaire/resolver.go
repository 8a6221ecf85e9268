package questionnaire

import (
	"fmt"
	"strings"

	"proposal-intake-be/internal/pkg/logger"
)

// PathResolutionError reports a malformed definition entry. Resolve never
// returns it; it is logged and the path degrades to the fixed prefix.
type PathResolutionError struct {
	Sector    string
	Subsector string
	Reason    string
}

func (e *PathResolutionError) Error() string {
	return fmt.Sprintf("questionnaire: cannot resolve %q/%q: %s", e.Sector, e.Subsector, e.Reason)
}

// Resolver turns a sector/subsector selection into the ordered list of
// question ids for a conversation.
type Resolver struct {
	def    *Definition
	logger logger.ILogger
}

func NewResolver(def *Definition, logger logger.ILogger) *Resolver {
	return &Resolver{def: def, logger: logger}
}

func (r *Resolver) Definition() *Definition {
	return r.def
}

// Resolve always returns the sector-independent prefix first. The subsector
// questions are appended only when both selections are present; an unknown
// subsector uses the sector's "Other" bucket.
func (r *Resolver) Resolve(sector, subsector string) []string {
	prefix := r.prefix()

	sector = strings.TrimSpace(sector)
	subsector = strings.TrimSpace(subsector)
	if sector == "" || subsector == "" {
		return prefix
	}

	tail, err := r.lookup(sector, subsector)
	if err != nil {
		r.logger.Warn("QUESTIONNAIRE", "Path resolution failed, using fixed prefix", map[string]interface{}{
			"sector":    sector,
			"subsector": subsector,
			"error":     err.Error(),
		})
		return prefix
	}

	path := make([]string, 0, len(prefix)+len(tail))
	path = append(path, prefix...)
	seen := make(map[string]struct{}, len(prefix))
	for _, id := range prefix {
		seen[id] = struct{}{}
	}
	for _, id := range tail {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		path = append(path, id)
	}
	return path
}

func (r *Resolver) prefix() []string {
	if r.def == nil {
		return []string{}
	}
	ids := make([]string, 0, len(r.def.InitialQuestions))
	for _, q := range r.def.InitialQuestions {
		if q.ID == "" {
			continue
		}
		ids = append(ids, q.ID)
	}
	return ids
}

func (r *Resolver) lookup(sector, subsector string) (ids []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ids = nil
			err = &PathResolutionError{Sector: sector, Subsector: subsector, Reason: fmt.Sprint(rec)}
		}
	}()

	if r.def == nil {
		return nil, &PathResolutionError{Sector: sector, Subsector: subsector, Reason: "no definition loaded"}
	}
	s, ok := r.def.findSector(sector)
	if !ok {
		return nil, &PathResolutionError{Sector: sector, Subsector: subsector, Reason: "unknown sector"}
	}
	sub, ok := s.findSubsector(subsector)
	if !ok {
		sub, ok = s.findSubsector(OtherSubsector)
		if !ok {
			return nil, &PathResolutionError{Sector: sector, Subsector: subsector, Reason: "unknown subsector and no Other bucket"}
		}
	}

	ids = make([]string, 0, len(sub.Questions))
	for i, q := range sub.Questions {
		if strings.TrimSpace(q.ID) == "" {
			return nil, &PathResolutionError{
				Sector:    sector,
				Subsector: sub.Name,
				Reason:    fmt.Sprintf("question %d has no id", i),
			}
		}
		ids = append(ids, q.ID)
	}
	return ids, nil
}
