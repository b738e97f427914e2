package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	mserr "github.com/mrz1836/marksafe/pkg/errors"
)

// CalculateChecksum computes the SHA256 checksum of data.
func CalculateChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// VerifyChecksum verifies that data matches the expected checksum.
func VerifyChecksum(data []byte, expected string) error {
	actual := CalculateChecksum(data)
	if actual != expected {
		return mserr.WithDetails(mserr.ErrBackupCorrupted, map[string]string{
			"expected": expected,
			"actual":   actual,
		})
	}
	return nil
}

func shortChecksum(sum string) string {
	if len(sum) <= 12 {
		return sum
	}
	return fmt.Sprintf("%s…", sum[:12])
}
