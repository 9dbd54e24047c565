// Package services implements the engine's search federation, result
// ranking, feature hierarchy resolution and organism catalog on top of the
// store adapters. All access decisions happen here, against the registry
// snapshot of the current request.
package services

import (
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"

	"github.com/moop-bio/moop-engine/pkg/adapters/organismstore"
	"github.com/moop-bio/moop-engine/pkg/apperrors"
)

// minTermLength is the shortest unquoted term that participates in a search.
// Shorter terms are dropped rather than rejected so "mrjp 1" still searches
// for "mrjp".
const minTermLength = 3

// markupStripper removes characters that have no place in query text. Tabs
// become spaces so they still separate terms.
var markupStripper = strings.NewReplacer("<", "", ">", "", ";", "", "\t", " ")

// NormalizeQuery turns raw user text into search terms. Quoted mode keeps
// the text as one phrase; otherwise it splits on whitespace and drops terms
// under the minimum length. Text that trips SQL-injection screening is
// rejected outright.
func NormalizeQuery(raw string, quoted bool) (organismstore.SearchTerms, error) {
	cleaned := strings.TrimSpace(markupStripper.Replace(raw))

	// Text wrapped in matching quote characters forces phrase mode even
	// without the explicit flag.
	if !quoted {
		if n := len(cleaned); n >= 2 && cleaned[0] == cleaned[n-1] &&
			(cleaned[0] == '"' || cleaned[0] == '\'') {
			quoted = true
			cleaned = strings.TrimSpace(cleaned[1 : n-1])
		}
	}
	if cleaned == "" {
		return organismstore.SearchTerms{}, apperrors.ErrQueryTooShort
	}
	if sqli, _ := libinjection.IsSQLi(cleaned); sqli {
		return organismstore.SearchTerms{}, apperrors.ErrQueryRejected
	}

	if quoted {
		return organismstore.SearchTerms{Phrase: cleaned, Quoted: true}, nil
	}

	var terms []string
	for _, term := range strings.Fields(cleaned) {
		if len(term) >= minTermLength {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return organismstore.SearchTerms{}, apperrors.ErrQueryTooShort
	}
	return organismstore.SearchTerms{Terms: terms}, nil
}
