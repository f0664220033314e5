package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// RolloverBatchID computes the archive batch id of a daily rollover using SHA256.
// Formula: SHA256("rollover"|YYYY-MM-DD|result_count)
// Returns hex-encoded hash (64 characters).
func RolloverBatchID(day time.Time, resultCount int) string {
	data := fmt.Sprintf("rollover|%s|%d", day.Format("2006-01-02"), resultCount)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
