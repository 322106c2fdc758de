package repositories

import "errors"

// Not-found sentinels shared by all repository implementations so that
// callers can branch with errors.Is instead of matching message text.
var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrAddressNotFound = errors.New("address not found")
)
