package poller

import "errors"

var ErrUnknownResource = errors.New("unknown resource")
