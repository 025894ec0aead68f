package bridge

import (
	"context"
	"strings"
	"testing"

	"github.com/nexus-iaas/pvebridge/internal/proxmox"
)

func TestVMStatus_Running(t *testing.T) {
	client := newMockProxmoxClient()
	runningStatus(client)
	b := newTestBridge(client)

	res := b.Dispatch(context.Background(), &Request{Action: ActionStatus, VMID: 100})

	if !res.Success {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if res.Status != "running" {
		t.Errorf("status = %q, want running", res.Status)
	}
	if res.Uptime == nil || *res.Uptime != 3600 {
		t.Errorf("uptime = %v, want 3600", res.Uptime)
	}
	if res.MaxMem == nil || *res.MaxMem != 1<<30 {
		t.Errorf("maxmem = %v, want %d", res.MaxMem, 1<<30)
	}
}

// TestVMStatus_StoppedDefaultsToZero: a stopped VM reports no uptime or
// usage; those fields must still be present, as zeros.
func TestVMStatus_StoppedDefaultsToZero(t *testing.T) {
	client := newMockProxmoxClient()
	b := newTestBridge(client)

	res := b.Dispatch(context.Background(), &Request{Action: ActionStatus, VMID: 100})

	if !res.Success {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if res.Uptime == nil || *res.Uptime != 0 {
		t.Errorf("uptime = %v, want explicit 0", res.Uptime)
	}
	if res.CPU == nil || *res.CPU != 0 {
		t.Errorf("cpu = %v, want explicit 0", res.CPU)
	}
	if res.Mem == nil || *res.Mem != 0 {
		t.Errorf("mem = %v, want explicit 0", res.Mem)
	}
}

// TestVMStatus_QueryFails: a failing remote query returns a failure
// envelope and never raises past the handler.
func TestVMStatus_QueryFails(t *testing.T) {
	client := newMockProxmoxClient()
	client.vmStatusFunc = func(ctx context.Context, vmid int) (*proxmox.VMStatus, error) {
		return nil, apiFailure("Configuration file 'nodes/pve/qemu-server/100.conf' does not exist")
	}
	b := newTestBridge(client)

	res := b.Dispatch(context.Background(), &Request{Action: ActionStatus, VMID: 100})

	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Error, "100.conf") {
		t.Errorf("raw error text not preserved: %q", res.Error)
	}
}

func TestConsoleURL_Running(t *testing.T) {
	client := newMockProxmoxClient()
	runningStatus(client)
	client.vncProxyFunc = func(ctx context.Context, vmid int) (*proxmox.VNCProxy, error) {
		return &proxmox.VNCProxy{Ticket: "PVEVNC:65B0C123::abc/def+ghi", Port: "5901"}, nil
	}
	b := newTestBridge(client)

	res := b.Dispatch(context.Background(), &Request{Action: ActionConsole, VMID: 100})

	if !res.Success {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if res.Ticket != "PVEVNC:65B0C123::abc/def+ghi" {
		t.Errorf("ticket = %q", res.Ticket)
	}
	if res.Port != "5901" {
		t.Errorf("port = %q, want 5901", res.Port)
	}
	for _, fragment := range []string{
		"https://pve.example.com:8006/",
		"console=kvm",
		"novnc=1",
		"vmid=100",
		"node=pve",
		"port=5901",
	} {
		if !strings.Contains(res.ConsoleURL, fragment) {
			t.Errorf("console URL missing %q: %s", fragment, res.ConsoleURL)
		}
	}
	if strings.Contains(res.ConsoleURL, "abc/def+ghi") {
		t.Errorf("ticket must be URL-escaped in the console URL: %s", res.ConsoleURL)
	}
}

func TestConsoleURL_NotRunning(t *testing.T) {
	client := newMockProxmoxClient() // default status is stopped
	b := newTestBridge(client)

	res := b.Dispatch(context.Background(), &Request{Action: ActionConsole, VMID: 100})

	if res.Success {
		t.Fatal("expected failure for console on a stopped VM")
	}
	if res.Message != "VM must be running to access console" {
		t.Errorf("unexpected message: %q", res.Message)
	}
	if len(client.vncProxyCalls) != 0 {
		t.Errorf("expected no vncproxy calls, got %d", len(client.vncProxyCalls))
	}
}

func TestConsoleURL_MissingPortDefaults(t *testing.T) {
	client := newMockProxmoxClient()
	runningStatus(client)
	client.vncProxyFunc = func(ctx context.Context, vmid int) (*proxmox.VNCProxy, error) {
		return &proxmox.VNCProxy{Ticket: "PVEVNC:ticket"}, nil
	}
	b := newTestBridge(client)

	res := b.Dispatch(context.Background(), &Request{Action: ActionConsole, VMID: 100})

	if !res.Success {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if res.Port != "5900" {
		t.Errorf("port = %q, want the 5900 default", res.Port)
	}
}
