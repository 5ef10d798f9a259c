package template

import "errors"

// Shift template domain errors
var (
	ErrTemplateNotFound   = errors.New("shift template not found")
	ErrTemplateNameExists = errors.New("shift template name already exists")
	ErrTemplateInactive   = errors.New("shift template is deactivated")
)
