package gate

// Action is the verb half of a permission.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionList   Action = "list"
	ActionUpdate Action = "update"
	ActionExport Action = "export"
)

// Resource types guarded by the gate.
const (
	ResourceGrade   = "grade"
	ResourcePreset  = "preset"
	ResourceProject = "project"
	ResourceUser    = "user"
)
