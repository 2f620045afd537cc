package openfiles

import (
	"fmt"

	"golang.org/x/text/cases"
)

var fileTypeFolded = cases.Fold().String(FileObjectType)

// isFileObject reports whether h is a file object. Anything else is dropped
// before a path query can be issued against it. A failed type query counts as
// "not a file".
func isFileObject(h *ImportedHandle) (bool, error) {
	name, err := h.handle.ObjectType()
	if err != nil {
		return false, fmt.Errorf("query object type: %w", err)
	}
	return cases.Fold().String(name) == fileTypeFolded, nil
}
