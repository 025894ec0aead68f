package bridge

// Action names accepted by the dispatcher. These are part of the
// invocation contract with the calling orchestrator.
const (
	ActionCreate         = "create"
	ActionStart          = "start"
	ActionStop           = "stop"
	ActionReboot         = "reboot"
	ActionDelete         = "delete"
	ActionStatus         = "status"
	ActionConsole        = "console"
	ActionSnapshotList   = "snapshot_list"
	ActionSnapshotCreate = "snapshot_create"
)

// Request is one VM operation request, constructed once from caller
// input and immutable for the duration of the call.
type Request struct {
	Action string
	VMID   int

	// Create parameters.
	Name       string
	VCPU       int
	RAMMB      int
	DiskGB     int
	OSTemplate string
	IPAddress  string
	Gateway    string

	// Stop behavior: immediate stop instead of graceful shutdown.
	Force bool

	// Snapshot creation parameters.
	SnapshotName        string
	SnapshotDescription string
}

// Validate checks the action name and its required parameters.
// It must be called before any remote interaction: a partially submitted
// mutating request is unrecoverable without manual cleanup, so bad input
// has to be rejected while nothing has been sent yet.
func (r *Request) Validate() error {
	switch r.Action {
	case ActionCreate, ActionStart, ActionStop, ActionReboot, ActionDelete,
		ActionStatus, ActionConsole, ActionSnapshotList, ActionSnapshotCreate:
	default:
		return validationError("Unknown action")
	}

	if r.VMID <= 0 {
		return validationError("VM ID must be a positive integer")
	}

	switch r.Action {
	case ActionCreate:
		if r.Name == "" || r.VCPU <= 0 || r.RAMMB <= 0 || r.DiskGB <= 0 ||
			r.OSTemplate == "" || r.IPAddress == "" || r.Gateway == "" {
			return validationError("Missing required arguments for create action")
		}
	case ActionSnapshotCreate:
		if r.SnapshotName == "" {
			return validationError("Missing --snapshot-name for snapshot_create action")
		}
	}

	return nil
}
