package extract

import (
	"fmt"
	"strings"

	clienterrors "cv-analyzer-client/internal/common/errors"
	"cv-analyzer-client/internal/models"
)

// ValidateFile enforces the selection rules the drag-and-drop surface
// applied in the original product: extension allow-list and a size cap.
// Violations are ValidationErrors and never reach the backend.
func ValidateFile(file models.UploadedFile, maxSize int64, allowedExtensions []string) error {
	allowed := false
	for _, ext := range allowedExtensions {
		if strings.EqualFold(ext, file.Ext) {
			allowed = true
			break
		}
	}
	if !allowed {
		return clienterrors.NewValidationError("validateFile",
			fmt.Sprintf("%s has an unsupported type %q; allowed: %s",
				file.Name, file.Ext, strings.Join(allowedExtensions, ", ")))
	}

	if file.Size > maxSize {
		return clienterrors.NewValidationError("validateFile",
			fmt.Sprintf("%s is %d bytes, exceeding the %d byte limit", file.Name, file.Size, maxSize))
	}
	if file.Size == 0 {
		return clienterrors.NewValidationError("validateFile",
			fmt.Sprintf("%s is empty", file.Name))
	}
	return nil
}
