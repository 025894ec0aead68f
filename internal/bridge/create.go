package bridge

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nexus-iaas/pvebridge/internal/proxmox"
)

// createVM submits a VM creation job and waits for it to finish.
//
// Creation is not idempotent: once a job is accepted the caller must not
// retry with the same identifier. There is no precondition query here;
// the hypervisor rejects duplicate VM IDs itself and that rejection is
// surfaced as an API error.
func (b *Bridge) createVM(ctx context.Context, log logrus.FieldLogger, req *Request) *Result {
	log.WithField("name", req.Name).Info("creating VM")

	upid, err := b.client.CreateVM(ctx, proxmox.CreateRequest{
		VMID:       req.VMID,
		Name:       req.Name,
		Cores:      req.VCPU,
		MemoryMB:   req.RAMMB,
		DiskGB:     req.DiskGB,
		OSTemplate: req.OSTemplate,
		Description: fmt.Sprintf("Created by pvebridge\nIP: %s\nGateway: %s",
			req.IPAddress, req.Gateway),
	})
	if err != nil {
		log.WithError(err).Error("VM creation request failed")
		return failure(req.VMID, err)
	}

	status := b.waitForTask(ctx, upid, b.taskTimeout)
	if status != taskStatusOK {
		log.WithField("task_status", status).Error("VM creation did not complete")
		message := fmt.Sprintf("VM creation failed with status: %s", status)
		if status == taskStatusTimeout {
			return failure(req.VMID, timeoutError(message))
		}
		return failure(req.VMID, &Error{Kind: KindInternal, Message: message})
	}

	log.Info("VM created")
	res := ok(req.VMID, fmt.Sprintf("VM %s created successfully", req.Name))
	res.TaskID = upid
	return res
}
