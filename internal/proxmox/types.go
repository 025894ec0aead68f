package proxmox

import (
	"encoding/json"
	"fmt"
)

// VMStatus is the current state of a QEMU VM as reported by
// GET /nodes/{node}/qemu/{vmid}/status/current.
type VMStatus struct {
	VMID   int     `json:"vmid"`
	Name   string  `json:"name"`
	Status string  `json:"status"` // "running", "stopped", "paused", ...
	CPU    float64 `json:"cpu"`
	Mem    int64   `json:"mem"`
	MaxMem int64   `json:"maxmem"`
	Uptime int64   `json:"uptime"`
	PID    int     `json:"pid,omitempty"`
	Lock   string  `json:"lock,omitempty"` // "snapshot", "clone", "migrate", ...
}

// Running reports whether the VM is currently running.
func (s *VMStatus) Running() bool { return s.Status == "running" }

// Stopped reports whether the VM is currently stopped.
func (s *VMStatus) Stopped() bool { return s.Status == "stopped" }

// TaskStatus is the state of an asynchronous task as reported by
// GET /nodes/{node}/tasks/{upid}/status.
type TaskStatus struct {
	Status     string `json:"status"`               // "running" or "stopped"
	ExitStatus string `json:"exitstatus,omitempty"` // "OK" on success
	Type       string `json:"type,omitempty"`
	ID         string `json:"id,omitempty"`
	Node       string `json:"node,omitempty"`
	PID        int    `json:"pid,omitempty"`
	StartTime  int64  `json:"starttime,omitempty"`
	EndTime    int64  `json:"endtime,omitempty"`
}

// Finished reports whether the task has reached a terminal state.
func (t *TaskStatus) Finished() bool { return t.Status == "stopped" }

// Snapshot is one entry from GET /nodes/{node}/qemu/{vmid}/snapshot.
// Every listing includes an implicit "current" pseudo-entry for the
// live VM state; callers typically filter it out.
type Snapshot struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SnapTime    int64  `json:"snaptime,omitempty"`
	Parent      string `json:"parent,omitempty"`
	VMState     int    `json:"vmstate,omitempty"` // 1 if the snapshot includes RAM state
}

// VNCProxy is the ticket returned by POST /nodes/{node}/qemu/{vmid}/vncproxy.
// The ticket is single-use and expires on the Proxmox side. Port arrives as
// a JSON string on current Proxmox releases and as a number on older ones.
type VNCProxy struct {
	Ticket string      `json:"ticket"`
	Port   json.Number `json:"port"`
	UPID   string      `json:"upid,omitempty"`
	User   string      `json:"user,omitempty"`
}

// CreateRequest carries the parameters for POST /nodes/{node}/qemu.
//
// Network, boot, and storage settings mirror the fixed layout the bridge
// provisions for every VM: a virtio NIC on vmbr0 with the firewall enabled,
// a virtio-scsi boot disk on local-lvm, and the install ISO attached on ide2.
type CreateRequest struct {
	VMID        int
	Name        string
	Cores       int
	MemoryMB    int
	DiskGB      int
	OSTemplate  string // ISO volume name without the .iso suffix
	Description string
}

// APIError is a structured failure returned by the Proxmox API
// (non-2xx HTTP response). The response body is preserved verbatim
// for diagnostics.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: %s", e.Status, e.Body)
	}
	return e.Status
}
