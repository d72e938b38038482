package columnar

import (
	"github.com/ajitpratap0/oraexport/pkg/models"
)

// FilterLOBs returns a copy of r without the fields that look like large
// objects, plus the names of the dropped fields in record order. r itself is
// not modified.
func FilterLOBs(r *models.Record) (*models.Record, []string) {
	var skipped []string
	out := r.Filter(func(name string, v models.Value) bool {
		if IsLikelyLOB(v) {
			skipped = append(skipped, name)
			return false
		}
		return true
	})
	return out, skipped
}
