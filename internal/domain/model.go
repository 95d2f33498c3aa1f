package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Model represents a printable 3D asset stored in object storage
type Model struct {
	ID          uuid.UUID   `json:"id"`
	TenantID    uuid.UUID   `json:"tenantId"`
	ProductID   *uuid.UUID  `json:"productId,omitempty"`
	Name        string      `json:"name"`
	StorageKey  string      `json:"-"`
	FileName    string      `json:"fileName"`
	ContentType string      `json:"contentType"`
	SizeBytes   int64       `json:"sizeBytes"`
	Format      ModelFormat `json:"format"`
	Status      ModelStatus `json:"status"`
	UploadedBy  *uuid.UUID  `json:"uploadedBy,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// ModelInput represents metadata input for uploading a model
type ModelInput struct {
	Name      string     `json:"name" validate:"required,min=1,max=200"`
	ProductID *uuid.UUID `json:"productId,omitempty"`
}

// ModelUpdateInput represents input for updating model metadata
type ModelUpdateInput struct {
	Name      *string      `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	ProductID *uuid.UUID   `json:"productId,omitempty"`
	Status    *ModelStatus `json:"status,omitempty"`
}

// ModelFilter represents filter options for querying models
type ModelFilter struct {
	TenantID  uuid.UUID
	ProductID *uuid.UUID
	Format    *ModelFormat
	Status    *ModelStatus
	Search    *string
}

// ModelList represents a paginated list of models
type ModelList struct {
	Models     []Model `json:"models"`
	TotalCount int64   `json:"totalCount"`
	HasMore    bool    `json:"hasMore"`
}

// ModelFormatFromFileName derives the model format from a file extension
func ModelFormatFromFileName(name string) (ModelFormat, bool) {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 || idx == len(name)-1 {
		return "", false
	}
	ext := strings.ToLower(name[idx+1:])
	switch ext {
	case "stl":
		return ModelFormatSTL, true
	case "obj":
		return ModelFormatOBJ, true
	case "3mf":
		return ModelFormat3MF, true
	case "gcode", "gco":
		return ModelFormatGCode, true
	}
	return "", false
}

// AllowsContentType checks whether a declared content type is acceptable
// for the format. Browsers commonly send application/octet-stream for
// model files, so that is accepted for every format.
func (f ModelFormat) AllowsContentType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	if ct == "" || ct == "application/octet-stream" {
		return true
	}
	switch f {
	case ModelFormatSTL:
		return ct == "model/stl" || ct == "application/sla" || ct == "application/vnd.ms-pki.stl"
	case ModelFormatOBJ:
		return ct == "model/obj" || ct == "text/plain"
	case ModelFormat3MF:
		return ct == "model/3mf" || ct == "application/vnd.ms-package.3dmanufacturing-3dmodel+xml"
	case ModelFormatGCode:
		return ct == "text/x.gcode" || ct == "text/x-gcode" || ct == "text/plain"
	}
	return false
}
