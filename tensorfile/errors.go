package tensorfile

import "errors"

// ErrHeaderInvalid is returned when a tensor container's 8-byte length
// prefix or JSON metadata block cannot be parsed.
var ErrHeaderInvalid = errors.New("tensorfile: invalid tensor container header")
