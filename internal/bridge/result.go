package bridge

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nexus-iaas/pvebridge/internal/proxmox"
)

// Result is the single structured record every invocation produces.
// Field names are a stable contract with the calling orchestrator: it
// always contains `success`, and failure results carry the raw error
// text in `error` for diagnostics.
//
// Optional numeric fields use pointers so that a legitimate zero (an
// idle VM's cpu, a stopped VM's uptime) still appears in the output while
// unrelated operations omit the keys entirely.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	VMID    int    `json:"vmid,omitempty"`

	TaskID string `json:"task_id,omitempty"`

	// Status query payload.
	Status string   `json:"status,omitempty"`
	Uptime *int64   `json:"uptime,omitempty"`
	CPU    *float64 `json:"cpu,omitempty"`
	Mem    *int64   `json:"mem,omitempty"`
	MaxMem *int64   `json:"maxmem,omitempty"`

	// Console payload.
	ConsoleURL string `json:"console_url,omitempty"`
	Ticket     string `json:"ticket,omitempty"`
	Port       string `json:"port,omitempty"`

	// Snapshot payload. Pointer so an empty list still renders as [].
	Snapshots    *[]proxmox.Snapshot `json:"snapshots,omitempty"`
	SnapshotName string              `json:"snapshot_name,omitempty"`
}

// Write encodes the result as a single JSON record to w.
func (r *Result) Write(w io.Writer) error {
	if err := json.NewEncoder(w).Encode(r); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

// ExitCode returns the process exit code the result maps to.
func (r *Result) ExitCode() int {
	if r.Success {
		return 0
	}
	return 1
}

// ok builds a success result with a message.
func ok(vmid int, message string) *Result {
	return &Result{Success: true, Message: message, VMID: vmid}
}

// failure converts any error into a well-formed failure result.
//
// Three outcome classes collapse to the same envelope shape here:
// precondition and validation failures render their message directly with
// no error field (nothing went wrong remotely), structured API failures
// are prefixed so the caller can tell them apart, and everything else
// gets the generic prefix with the raw error text preserved.
func failure(vmid int, err error) *Result {
	classified := classify(err)

	res := &Result{Success: false, VMID: vmid}
	switch classified.Kind {
	case KindValidation, KindPrecondition:
		res.Message = classified.Message
	case KindAPI:
		res.Message = "Proxmox API error: " + classified.Message
		res.Error = classified.Message
	default:
		res.Message = "Error: " + classified.Message
		res.Error = classified.Message
	}
	return res
}

// ConfigFailure builds the envelope for missing connection configuration.
// It lives here so the command entrypoint never shapes JSON by hand.
func ConfigFailure(err error) *Result {
	return &Result{
		Success: false,
		Message: "Missing Proxmox configuration: " + err.Error(),
		Error:   err.Error(),
	}
}

// FatalFailure builds the envelope for a truly unanticipated failure
// caught at the outermost boundary.
func FatalFailure(v interface{}) *Result {
	text := fmt.Sprint(v)
	return &Result{
		Success: false,
		Message: "Bridge error: " + text,
		Error:   text,
	}
}

// InvalidArguments builds the envelope for argument parsing failures that
// happen before a Request can even be constructed.
func InvalidArguments(err error) *Result {
	return &Result{
		Success: false,
		Message: "Invalid arguments: " + err.Error(),
		Error:   err.Error(),
	}
}
