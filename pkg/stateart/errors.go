package stateart

import (
	stderrors "errors"

	"github.com/vango-dev/stateart/internal/errors"
)

// Sentinel errors. Errors returned by this package match them with
// errors.Is; the returned values carry store names and details.
var (
	ErrDuplicateStore error = errors.New("E001")
	ErrInvalidName    error = errors.New("E002")
	ErrUnknownPath    error = errors.New("E003")
	ErrReservedPath   error = errors.New("E004")
	ErrNameCollision  error = errors.New("E005")
	ErrUnknownAction  error = errors.New("E006")
	ErrInvalidPhase   error = errors.New("E007")
	ErrStoreNotFound  error = errors.New("E008")
	ErrTypeMismatch   error = errors.New("E009")
	ErrOutsideRender  error = errors.New("E010")
	ErrUnknownGetter  error = errors.New("E011")
	ErrStorageRead    error = errors.New("E080")
	ErrStorageWrite   error = errors.New("E081")
	ErrSnapshotDecode error = errors.New("E082")
	ErrSnapshotEncode error = errors.New("E083")
)

// ErrNotFound is returned by Storage.Load when no snapshot exists for a key.
var ErrNotFound = stderrors.New("stateart: snapshot not found")

// storeError attaches the store name to a StoreError, or wraps any other
// error under code.
func storeError(err error, code, store string) error {
	if err == nil {
		return nil
	}
	var se *errors.StoreError
	if stderrors.As(err, &se) && se.Code != "" {
		if se.Store == "" {
			se.Store = store
		}
		return se
	}
	return errors.New(code).WithStore(store).Wrap(err)
}
