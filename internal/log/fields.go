// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldInstanceID = "instance_id"
	FieldSolutionID = "solution_id"
	FieldTemplateID = "template_id"
	FieldNodeID     = "node_id"
	FieldRequestID  = "request_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldNode      = "node"
	FieldCategory  = "category"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Resource fields
	FieldPath     = "path"
	FieldURL      = "url"
	FieldDecoder  = "decoder"
	FieldModel    = "model"
	FieldPlatform = "platform"
)
