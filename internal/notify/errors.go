package notify

import "errors"

// ErrEmptyMessage is returned when an area message lacks area or text.
var ErrEmptyMessage = errors.New("notify: area and message are required")
