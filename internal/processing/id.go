package processing

import (
	"crypto/sha1"
	"encoding/hex"
	"time"

	"github.com/DeafMist/club-pulse/internal/models"
)

// RecordID hashes the fields that make a record unique within a batch.
func RecordID(source, text string, day time.Time) string {
	s := sha1.Sum([]byte(source + "|" + text + "|" + day.UTC().Format(models.DateLayout)))
	return hex.EncodeToString(s[:])
}
