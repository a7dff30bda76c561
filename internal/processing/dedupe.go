package processing

import (
	"github.com/spacesedan/redditcanon/internal/models"
	"github.com/spacesedan/redditcanon/internal/utils"
)

// Dedupe keeps the first arrival of every (type, id) key.
func Dedupe(records []models.CanonicalRecord) ([]models.CanonicalRecord, int) {
	return utils.DedupeBy(records, func(r models.CanonicalRecord) string {
		return r.Key()
	})
}
