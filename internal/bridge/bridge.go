// Package bridge implements the operation dispatcher: the mapping from a
// logical VM operation to a precondition check, an asynchronous job
// submission, a bounded poll-until-terminal wait, and a normalized
// result envelope.
package bridge

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexus-iaas/pvebridge/internal/proxmox"
)

const (
	// taskPollInterval is how often a pending task's status is queried.
	taskPollInterval = 2 * time.Second

	// taskTimeout bounds the wait for VM lifecycle tasks.
	taskTimeout = 60 * time.Second

	// snapshotTaskTimeout bounds the wait for snapshot creation, which
	// routinely outlives the lifecycle budget on busy storage.
	snapshotTaskTimeout = 120 * time.Second

	// deleteGracePeriod is how long a forced stop is given to settle
	// before the delete is issued. The stop job's own completion is not
	// polled; this matches the documented upstream behavior and its
	// known race (the delete can be issued before the stop finishes).
	deleteGracePeriod = 3 * time.Second

	// taskStatusOK is the exit status of a successfully finished task.
	taskStatusOK = "OK"
)

// Bridge executes one VM operation against a Proxmox node and produces
// exactly one Result. It holds no state that outlives the invocation.
type Bridge struct {
	client proxmoxClient
	host   string
	node   string
	log    logrus.FieldLogger

	// Poll and grace timings, fixed in production, shortened in tests.
	pollInterval    time.Duration
	taskTimeout     time.Duration
	snapshotTimeout time.Duration
	deleteGrace     time.Duration
}

// New creates a Bridge backed by a real Proxmox client.
func New(client *proxmox.Client, log logrus.FieldLogger) *Bridge {
	return &Bridge{
		client:          client,
		host:            client.Host(),
		node:            client.Node(),
		log:             log,
		pollInterval:    taskPollInterval,
		taskTimeout:     taskTimeout,
		snapshotTimeout: snapshotTaskTimeout,
		deleteGrace:     deleteGracePeriod,
	}
}

// Dispatch validates the request and executes exactly one handler,
// always returning a well-formed Result. Invalid requests are rejected
// before any remote interaction.
func (b *Bridge) Dispatch(ctx context.Context, req *Request) *Result {
	if err := req.Validate(); err != nil {
		return failure(req.VMID, err)
	}

	log := b.log.WithFields(logrus.Fields{"action": req.Action, "vmid": req.VMID})

	switch req.Action {
	case ActionCreate:
		return b.createVM(ctx, log, req)
	case ActionStart:
		return b.startVM(ctx, log, req)
	case ActionStop:
		return b.stopVM(ctx, log, req)
	case ActionReboot:
		return b.rebootVM(ctx, log, req)
	case ActionDelete:
		return b.deleteVM(ctx, log, req)
	case ActionStatus:
		return b.vmStatus(ctx, log, req)
	case ActionConsole:
		return b.consoleURL(ctx, log, req)
	case ActionSnapshotList:
		return b.listSnapshots(ctx, log, req)
	case ActionSnapshotCreate:
		return b.createSnapshot(ctx, log, req)
	default:
		// Unreachable: Validate rejects unknown actions.
		return failure(req.VMID, validationError("Unknown action"))
	}
}
