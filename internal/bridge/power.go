package bridge

import (
	"context"

	"github.com/sirupsen/logrus"
)

// startVM starts a VM unless it is already running.
//
// The state query happens fresh on every call; a cached answer could turn
// the idempotence check into a double start.
func (b *Bridge) startVM(ctx context.Context, log logrus.FieldLogger, req *Request) *Result {
	status, err := b.client.VMStatus(ctx, req.VMID)
	if err != nil {
		log.WithError(err).Error("status query failed")
		return failure(req.VMID, err)
	}

	if status.Running() {
		log.Debug("VM already running, nothing to do")
		return ok(req.VMID, "VM is already running")
	}

	upid, err := b.client.StartVM(ctx, req.VMID)
	if err != nil {
		log.WithError(err).Error("start request failed")
		return failure(req.VMID, err)
	}

	log.Info("VM start submitted")
	res := ok(req.VMID, "VM started successfully")
	res.TaskID = upid
	return res
}

// stopVM stops a VM unless it is already stopped. A forced stop cuts
// power immediately; the default is a graceful guest shutdown.
func (b *Bridge) stopVM(ctx context.Context, log logrus.FieldLogger, req *Request) *Result {
	status, err := b.client.VMStatus(ctx, req.VMID)
	if err != nil {
		log.WithError(err).Error("status query failed")
		return failure(req.VMID, err)
	}

	if status.Stopped() {
		log.Debug("VM already stopped, nothing to do")
		return ok(req.VMID, "VM is already stopped")
	}

	var upid string
	if req.Force {
		upid, err = b.client.StopVM(ctx, req.VMID)
	} else {
		upid, err = b.client.ShutdownVM(ctx, req.VMID)
	}
	if err != nil {
		log.WithError(err).Error("stop request failed")
		return failure(req.VMID, err)
	}

	log.WithField("force", req.Force).Info("VM stop submitted")
	res := ok(req.VMID, "VM stopped successfully")
	res.TaskID = upid
	return res
}

// rebootVM reboots a running VM. Rebooting anything else is a
// precondition failure; the request never reaches the hypervisor.
func (b *Bridge) rebootVM(ctx context.Context, log logrus.FieldLogger, req *Request) *Result {
	status, err := b.client.VMStatus(ctx, req.VMID)
	if err != nil {
		log.WithError(err).Error("status query failed")
		return failure(req.VMID, err)
	}

	if !status.Running() {
		return failure(req.VMID, preconditionError("VM must be running to reboot"))
	}

	upid, err := b.client.RebootVM(ctx, req.VMID)
	if err != nil {
		log.WithError(err).Error("reboot request failed")
		return failure(req.VMID, err)
	}

	log.Info("VM reboot submitted")
	res := ok(req.VMID, "VM rebooted successfully")
	res.TaskID = upid
	return res
}
