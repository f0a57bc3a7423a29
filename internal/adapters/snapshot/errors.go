package snapshot

import "errors"

// ErrSnapshot marks any failure to produce or ship a snapshot.
var ErrSnapshot = errors.New("snapshot failed")
