package checkout

import "errors"

var ErrEmptyCart = errors.New("cannot checkout an empty cart")
var ErrIdentityRequired = errors.New("checkout requires an authenticated identity")

var ErrOrderNotFound = errors.New("order not found")
var ErrInvalidTransition = errors.New("invalid order status transition")
