package bridge

import (
	"context"

	"github.com/nexus-iaas/pvebridge/internal/proxmox"
)

// proxmoxClient defines the Proxmox API operations the dispatcher needs.
//
// In production, this is satisfied by *proxmox.Client directly.
// In tests, this is satisfied by mock implementations.
//
// Methods that submit asynchronous jobs return the task reference (UPID)
// the hypervisor assigned to the job.
type proxmoxClient interface {
	// VMStatus fetches the current state of a VM
	VMStatus(ctx context.Context, vmid int) (*proxmox.VMStatus, error)

	// StartVM submits a start job
	StartVM(ctx context.Context, vmid int) (string, error)

	// ShutdownVM submits a graceful shutdown job
	ShutdownVM(ctx context.Context, vmid int) (string, error)

	// StopVM submits an immediate (hard) stop job
	StopVM(ctx context.Context, vmid int) (string, error)

	// RebootVM submits a reboot job
	RebootVM(ctx context.Context, vmid int) (string, error)

	// CreateVM submits a VM creation job
	CreateVM(ctx context.Context, req proxmox.CreateRequest) (string, error)

	// DeleteVM submits a deletion job, optionally with purge semantics
	DeleteVM(ctx context.Context, vmid int, purge bool) (string, error)

	// VNCProxy requests a short-lived VNC proxy ticket
	VNCProxy(ctx context.Context, vmid int) (*proxmox.VNCProxy, error)

	// ListSnapshots lists all snapshot entries, including "current"
	ListSnapshots(ctx context.Context, vmid int) ([]proxmox.Snapshot, error)

	// CreateSnapshot submits a snapshot job
	CreateSnapshot(ctx context.Context, vmid int, name, description string) (string, error)

	// TaskStatus fetches the status of an asynchronous task
	TaskStatus(ctx context.Context, upid string) (*proxmox.TaskStatus, error)
}
