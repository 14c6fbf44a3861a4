package core

import (
	"errors"
)

var (
	ErrEngineStage = errors.New("operation not allowed in the current engine stage")
	ErrNotReady    = errors.New("resources are not ready")
)
