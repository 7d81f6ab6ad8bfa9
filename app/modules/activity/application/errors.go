package activityservice

import "errors"

// ErrInvalidDistance is returned for a distance that is not a finite
// positive number of kilometres. It is user-correctable.
var ErrInvalidDistance = errors.New("invalid distance")
