package app

import (
	"github.com/nfrund/studybuddy/internal/module"
	"github.com/nfrund/studybuddy/internal/modules/chat"
)

// NewModules returns the feature modules, in boot order.
func NewModules() []module.Module {
	return []module.Module{
		chat.New(),
	}
}
