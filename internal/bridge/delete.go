package bridge

import (
	"context"

	"github.com/sirupsen/logrus"
)

// deleteVM deletes a VM, force-stopping it first when it is running.
//
// The forced stop is given a fixed grace period rather than a wait on the
// stop job's completion; see deleteGracePeriod. The delete runs with
// purge semantics: the VM also leaves backup job membership and its
// unreferenced disks are destroyed. Destructive, no confirmation beyond
// caller-side checks.
func (b *Bridge) deleteVM(ctx context.Context, log logrus.FieldLogger, req *Request) *Result {
	status, err := b.client.VMStatus(ctx, req.VMID)
	if err != nil {
		log.WithError(err).Error("status query failed")
		return failure(req.VMID, err)
	}

	if status.Running() {
		log.Info("VM is running, force-stopping before delete")
		if _, err := b.client.StopVM(ctx, req.VMID); err != nil {
			// Best effort: the delete below fails on its own if the VM
			// is still up, and that failure carries the real diagnostics.
			log.WithError(err).Warn("force stop before delete failed")
		}
		sleep(ctx, b.deleteGrace)
	}

	upid, err := b.client.DeleteVM(ctx, req.VMID, true)
	if err != nil {
		log.WithError(err).Error("delete request failed")
		return failure(req.VMID, err)
	}

	log.Info("VM delete submitted")
	res := ok(req.VMID, "VM deleted successfully")
	res.TaskID = upid
	return res
}
