package bridge

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nexus-iaas/pvebridge/internal/proxmox"
)

// currentSnapshotName is the implicit pseudo-entry every Proxmox snapshot
// listing includes for the live VM state.
const currentSnapshotName = "current"

// listSnapshots returns the VM's named snapshots in API order, with the
// "current" pseudo-entry filtered out.
func (b *Bridge) listSnapshots(ctx context.Context, log logrus.FieldLogger, req *Request) *Result {
	entries, err := b.client.ListSnapshots(ctx, req.VMID)
	if err != nil {
		log.WithError(err).Error("snapshot listing failed")
		return failure(req.VMID, err)
	}

	snapshots := make([]proxmox.Snapshot, 0, len(entries))
	for _, entry := range entries {
		if entry.Name == currentSnapshotName {
			continue
		}
		snapshots = append(snapshots, entry)
	}

	log.WithField("count", len(snapshots)).Info("snapshots listed")
	res := ok(req.VMID, fmt.Sprintf("Found %d snapshots", len(snapshots)))
	res.Snapshots = &snapshots
	return res
}

// createSnapshot submits a snapshot job and waits for it to finish.
// A snapshot with the same name already existing is enforced by the
// hypervisor and surfaces as an API error.
func (b *Bridge) createSnapshot(ctx context.Context, log logrus.FieldLogger, req *Request) *Result {
	log.WithField("snapshot", req.SnapshotName).Info("creating snapshot")

	description := req.SnapshotDescription
	if description == "" {
		description = "Created by pvebridge"
	}

	upid, err := b.client.CreateSnapshot(ctx, req.VMID, req.SnapshotName, description)
	if err != nil {
		log.WithError(err).Error("snapshot request failed")
		return failure(req.VMID, err)
	}

	status := b.waitForTask(ctx, upid, b.snapshotTimeout)
	if status != taskStatusOK {
		log.WithField("task_status", status).Error("snapshot creation did not complete")
		message := fmt.Sprintf("Snapshot creation failed with status: %s", status)
		if status == taskStatusTimeout {
			return failure(req.VMID, timeoutError(message))
		}
		return failure(req.VMID, &Error{Kind: KindInternal, Message: message})
	}

	log.Info("snapshot created")
	res := ok(req.VMID, fmt.Sprintf("Snapshot %q created successfully", req.SnapshotName))
	res.SnapshotName = req.SnapshotName
	res.TaskID = upid
	return res
}
