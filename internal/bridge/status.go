package bridge

import (
	"context"
	"fmt"
	"net/url"

	units "github.com/docker/go-units"
	"github.com/sirupsen/logrus"
)

// vmStatus reports a VM's current state. Read-only and side-effect-free;
// numeric fields the hypervisor omits (a stopped VM has no uptime) are
// reported as 0.
func (b *Bridge) vmStatus(ctx context.Context, log logrus.FieldLogger, req *Request) *Result {
	status, err := b.client.VMStatus(ctx, req.VMID)
	if err != nil {
		log.WithError(err).Error("status query failed")
		return failure(req.VMID, err)
	}

	log.WithFields(logrus.Fields{
		"status": status.Status,
		"mem":    units.BytesSize(float64(status.Mem)),
		"maxmem": units.BytesSize(float64(status.MaxMem)),
	}).Info("VM status fetched")

	res := ok(req.VMID, "")
	res.Status = status.Status
	res.Uptime = &status.Uptime
	res.CPU = &status.CPU
	res.Mem = &status.Mem
	res.MaxMem = &status.MaxMem
	return res
}

// consoleURL mints a VNC proxy ticket for a running VM and composes the
// noVNC connection URL. The ticket is single-use and time-limited by the
// hypervisor, not by the bridge.
func (b *Bridge) consoleURL(ctx context.Context, log logrus.FieldLogger, req *Request) *Result {
	status, err := b.client.VMStatus(ctx, req.VMID)
	if err != nil {
		log.WithError(err).Error("status query failed")
		return failure(req.VMID, err)
	}

	if !status.Running() {
		return failure(req.VMID, preconditionError("VM must be running to access console"))
	}

	proxy, err := b.client.VNCProxy(ctx, req.VMID)
	if err != nil {
		log.WithError(err).Error("vncproxy request failed")
		return failure(req.VMID, err)
	}

	port := proxy.Port.String()
	if port == "" {
		port = "5900"
	}

	consoleURL := fmt.Sprintf(
		"https://%s:8006/?console=kvm&novnc=1&vmid=%d&node=%s&resize=scale&ticket=%s&port=%s",
		b.host, req.VMID, b.node, url.QueryEscape(proxy.Ticket), port)

	log.Info("console URL generated")
	res := ok(req.VMID, "Console URL generated")
	res.ConsoleURL = consoleURL
	res.Ticket = proxy.Ticket
	res.Port = port
	return res
}
