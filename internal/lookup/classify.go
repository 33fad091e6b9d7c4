package lookup

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sevlook/sevlook/internal/sevco"
)

// maxTermLength is the DNS hostname length bound.
const maxTermLength = 253

// ipv4Pattern matches four dot-separated groups of 1-3 digits. Octet
// ranges are not validated, so 999.999.999.999 classifies as an IP; the
// upstream behavior is preserved for compatibility.
var ipv4Pattern = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)

// ValidationError indicates a selection string that was rejected before
// any network call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid search term: %s", e.Reason)
}

// Classify trims a raw selection string and derives its search kind.
// The kind is never user-supplied independently of the term.
func Classify(raw string) (sevco.SearchQuery, error) {
	term := strings.TrimSpace(raw)
	if term == "" {
		return sevco.SearchQuery{}, &ValidationError{Reason: "empty selection"}
	}
	if len(term) > maxTermLength {
		return sevco.SearchQuery{}, &ValidationError{Reason: fmt.Sprintf("selection longer than %d characters", maxTermLength)}
	}

	kind := sevco.SearchHostname
	if ipv4Pattern.MatchString(term) {
		kind = sevco.SearchIP
	}
	return sevco.SearchQuery{Term: term, Kind: kind}, nil
}
