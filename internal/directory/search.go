package directory

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jask/recondesk/internal/domain"
)

// Search filters the cached merchants by case-insensitive substring of the
// name or code. An empty term returns everything.
func (d *Directory) Search(term string) []domain.Merchant {
	return FilterMerchants(d.Merchants(), term)
}

func FilterMerchants(list []domain.Merchant, term string) []domain.Merchant {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return list
	}
	var out []domain.Merchant
	for _, m := range list {
		if strings.Contains(strings.ToLower(m.Name), term) || strings.Contains(strings.ToLower(m.Code), term) {
			out = append(out, m)
		}
	}
	return out
}

// Suggest returns the merchant whose name is closest to term when the
// distance is small relative to the name, for "did you mean" hints.
func (d *Directory) Suggest(term string) (domain.Merchant, bool) {
	term = strings.ToUpper(strings.TrimSpace(term))
	if term == "" {
		return domain.Merchant{}, false
	}
	var (
		best     domain.Merchant
		bestDist = -1
	)
	for _, m := range d.Merchants() {
		name := strings.ToUpper(m.Name)
		dist := levenshtein.ComputeDistance(term, name)
		if bestDist < 0 || dist < bestDist {
			best, bestDist = m, dist
		}
	}
	if bestDist < 0 {
		return domain.Merchant{}, false
	}
	maxlen := len(term)
	if len(best.Name) > maxlen {
		maxlen = len(best.Name)
	}
	if float64(bestDist)/float64(maxlen) >= 0.5 {
		return domain.Merchant{}, false
	}
	return best, true
}
