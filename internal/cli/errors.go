package cli

import (
	"github.com/mrz1836/marksafe/internal/history"
	mserr "github.com/mrz1836/marksafe/pkg/errors"
)

func noDataError(item history.Item) error {
	err := mserr.WithDetails(mserr.ErrNoBackupData, map[string]string{"id": item.ID})
	if item.Location != "" {
		return mserr.WithSuggestion(err, "the backup was written to "+item.Location)
	}
	return mserr.WithSuggestion(err, "only backups taken in extension storage mode keep their content")
}
