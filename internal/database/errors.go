package database

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ashradio/chat-server/pkg/apperr"
)

// storeErr normalise les erreurs gorm vers la taxonomie apperr
// attendue par les services.
func storeErr(err error, notFoundMsg, conflictMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(notFoundMsg)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.AlreadyExists(conflictMsg)
	default:
		return apperr.Wrap(apperr.CodeInternal, "erreur de stockage", err)
	}
}
