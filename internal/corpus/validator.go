package corpus

import (
	"fmt"
	"sort"
	"strings"
)

const (
	maxTitleLength = 1024
	maxTextLength  = 1048576
)

// ValidationError holds per-record validation failures keyed by
// "documents[i].field" or "sections[i].field".
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

// Validate checks every document and section in the snapshot and returns a
// ValidationError listing each problem. Orphaned sections are reported here
// but the engine still accepts the snapshot and skips them.
func Validate(s Snapshot) error {
	errs := make(map[string]string)

	docIDs := make(map[string]struct{}, len(s.Documents))
	for i, doc := range s.Documents {
		key := fmt.Sprintf("documents[%d]", i)
		if strings.TrimSpace(doc.ID) == "" {
			errs[key+".id"] = "id is required"
		} else if _, dup := docIDs[doc.ID]; dup {
			errs[key+".id"] = fmt.Sprintf("duplicate document id %q", doc.ID)
		} else {
			docIDs[doc.ID] = struct{}{}
		}
		if strings.TrimSpace(doc.Title) == "" {
			errs[key+".title"] = "title is required"
		} else if len(doc.Title) > maxTitleLength {
			errs[key+".title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
		}
		if !doc.AuthorityLevel.Valid() {
			errs[key+".authorityLevel"] = fmt.Sprintf("unknown authority level %q", doc.AuthorityLevel)
		}
		if strings.TrimSpace(string(doc.Type)) == "" {
			errs[key+".type"] = "type is required"
		}
	}

	sectionIDs := make(map[string]struct{}, len(s.Sections))
	for i, sec := range s.Sections {
		key := fmt.Sprintf("sections[%d]", i)
		if strings.TrimSpace(sec.ID) == "" {
			errs[key+".id"] = "id is required"
		} else if _, dup := sectionIDs[sec.ID]; dup {
			errs[key+".id"] = fmt.Sprintf("duplicate section id %q", sec.ID)
		} else {
			sectionIDs[sec.ID] = struct{}{}
		}
		if _, ok := docIDs[sec.DocumentID]; !ok {
			errs[key+".documentId"] = fmt.Sprintf("references unknown document %q", sec.DocumentID)
		}
		if len(sec.Title) > maxTitleLength {
			errs[key+".title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
		}
		if len(sec.Text) > maxTextLength {
			errs[key+".text"] = fmt.Sprintf("text must be at most %d characters", maxTextLength)
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
