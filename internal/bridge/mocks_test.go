package bridge

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexus-iaas/pvebridge/internal/proxmox"
)

// mockProxmoxClient is a mock implementation of the proxmoxClient
// interface for testing.
type mockProxmoxClient struct {
	// Configurable behavior
	vmStatusFunc       func(ctx context.Context, vmid int) (*proxmox.VMStatus, error)
	startVMFunc        func(ctx context.Context, vmid int) (string, error)
	shutdownVMFunc     func(ctx context.Context, vmid int) (string, error)
	stopVMFunc         func(ctx context.Context, vmid int) (string, error)
	rebootVMFunc       func(ctx context.Context, vmid int) (string, error)
	createVMFunc       func(ctx context.Context, req proxmox.CreateRequest) (string, error)
	deleteVMFunc       func(ctx context.Context, vmid int, purge bool) (string, error)
	vncProxyFunc       func(ctx context.Context, vmid int) (*proxmox.VNCProxy, error)
	listSnapshotsFunc  func(ctx context.Context, vmid int) ([]proxmox.Snapshot, error)
	createSnapshotFunc func(ctx context.Context, vmid int, name, description string) (string, error)
	taskStatusFunc     func(ctx context.Context, upid string) (*proxmox.TaskStatus, error)

	// Call tracking
	vmStatusCalls       []int
	startVMCalls        []int
	shutdownVMCalls     []int
	stopVMCalls         []int
	rebootVMCalls       []int
	createVMCalls       []proxmox.CreateRequest
	deleteVMCalls       []deleteCall
	vncProxyCalls       []int
	listSnapshotsCalls  []int
	createSnapshotCalls []snapshotCall
	taskStatusCalls     []string
}

type deleteCall struct {
	vmid  int
	purge bool
}

type snapshotCall struct {
	vmid        int
	name        string
	description string
}

// newMockProxmoxClient creates a mock with default behavior: the VM is
// stopped, every submission succeeds with a fixed task reference, and
// every task finishes immediately with OK.
func newMockProxmoxClient() *mockProxmoxClient {
	m := &mockProxmoxClient{}

	m.vmStatusFunc = func(ctx context.Context, vmid int) (*proxmox.VMStatus, error) {
		return &proxmox.VMStatus{VMID: vmid, Status: "stopped"}, nil
	}
	m.startVMFunc = func(ctx context.Context, vmid int) (string, error) {
		return testUPID, nil
	}
	m.shutdownVMFunc = func(ctx context.Context, vmid int) (string, error) {
		return testUPID, nil
	}
	m.stopVMFunc = func(ctx context.Context, vmid int) (string, error) {
		return testUPID, nil
	}
	m.rebootVMFunc = func(ctx context.Context, vmid int) (string, error) {
		return testUPID, nil
	}
	m.createVMFunc = func(ctx context.Context, req proxmox.CreateRequest) (string, error) {
		return testUPID, nil
	}
	m.deleteVMFunc = func(ctx context.Context, vmid int, purge bool) (string, error) {
		return testUPID, nil
	}
	m.vncProxyFunc = func(ctx context.Context, vmid int) (*proxmox.VNCProxy, error) {
		return &proxmox.VNCProxy{Ticket: "PVEVNC:ticket", Port: "5901"}, nil
	}
	m.listSnapshotsFunc = func(ctx context.Context, vmid int) ([]proxmox.Snapshot, error) {
		return nil, nil
	}
	m.createSnapshotFunc = func(ctx context.Context, vmid int, name, description string) (string, error) {
		return testUPID, nil
	}
	m.taskStatusFunc = func(ctx context.Context, upid string) (*proxmox.TaskStatus, error) {
		return &proxmox.TaskStatus{Status: "stopped", ExitStatus: "OK"}, nil
	}

	return m
}

const testUPID = "UPID:pve:00001234:0012D687:65B0C123:qmcreate:100:root@pam:"

func (m *mockProxmoxClient) VMStatus(ctx context.Context, vmid int) (*proxmox.VMStatus, error) {
	m.vmStatusCalls = append(m.vmStatusCalls, vmid)
	return m.vmStatusFunc(ctx, vmid)
}

func (m *mockProxmoxClient) StartVM(ctx context.Context, vmid int) (string, error) {
	m.startVMCalls = append(m.startVMCalls, vmid)
	return m.startVMFunc(ctx, vmid)
}

func (m *mockProxmoxClient) ShutdownVM(ctx context.Context, vmid int) (string, error) {
	m.shutdownVMCalls = append(m.shutdownVMCalls, vmid)
	return m.shutdownVMFunc(ctx, vmid)
}

func (m *mockProxmoxClient) StopVM(ctx context.Context, vmid int) (string, error) {
	m.stopVMCalls = append(m.stopVMCalls, vmid)
	return m.stopVMFunc(ctx, vmid)
}

func (m *mockProxmoxClient) RebootVM(ctx context.Context, vmid int) (string, error) {
	m.rebootVMCalls = append(m.rebootVMCalls, vmid)
	return m.rebootVMFunc(ctx, vmid)
}

func (m *mockProxmoxClient) CreateVM(ctx context.Context, req proxmox.CreateRequest) (string, error) {
	m.createVMCalls = append(m.createVMCalls, req)
	return m.createVMFunc(ctx, req)
}

func (m *mockProxmoxClient) DeleteVM(ctx context.Context, vmid int, purge bool) (string, error) {
	m.deleteVMCalls = append(m.deleteVMCalls, deleteCall{vmid: vmid, purge: purge})
	return m.deleteVMFunc(ctx, vmid, purge)
}

func (m *mockProxmoxClient) VNCProxy(ctx context.Context, vmid int) (*proxmox.VNCProxy, error) {
	m.vncProxyCalls = append(m.vncProxyCalls, vmid)
	return m.vncProxyFunc(ctx, vmid)
}

func (m *mockProxmoxClient) ListSnapshots(ctx context.Context, vmid int) ([]proxmox.Snapshot, error) {
	m.listSnapshotsCalls = append(m.listSnapshotsCalls, vmid)
	return m.listSnapshotsFunc(ctx, vmid)
}

func (m *mockProxmoxClient) CreateSnapshot(ctx context.Context, vmid int, name, description string) (string, error) {
	m.createSnapshotCalls = append(m.createSnapshotCalls, snapshotCall{vmid: vmid, name: name, description: description})
	return m.createSnapshotFunc(ctx, vmid, name, description)
}

func (m *mockProxmoxClient) TaskStatus(ctx context.Context, upid string) (*proxmox.TaskStatus, error) {
	m.taskStatusCalls = append(m.taskStatusCalls, upid)
	return m.taskStatusFunc(ctx, upid)
}

// mutatingCalls counts every call that would change remote state.
func (m *mockProxmoxClient) mutatingCalls() int {
	return len(m.startVMCalls) + len(m.shutdownVMCalls) + len(m.stopVMCalls) +
		len(m.rebootVMCalls) + len(m.createVMCalls) + len(m.deleteVMCalls) +
		len(m.createSnapshotCalls)
}

// totalCalls counts every client call of any kind.
func (m *mockProxmoxClient) totalCalls() int {
	return m.mutatingCalls() + len(m.vmStatusCalls) + len(m.vncProxyCalls) +
		len(m.listSnapshotsCalls) + len(m.taskStatusCalls)
}

// newTestBridge wires a Bridge to the mock with timings short enough for
// tests: task budgets of a few poll intervals, millisecond-scale waits.
func newTestBridge(client *mockProxmoxClient) *Bridge {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return &Bridge{
		client:          client,
		host:            "pve.example.com",
		node:            "pve",
		log:             logger,
		pollInterval:    time.Millisecond,
		taskTimeout:     50 * time.Millisecond,
		snapshotTimeout: 50 * time.Millisecond,
		deleteGrace:     20 * time.Millisecond,
	}
}

// runningStatus configures the mock to report the VM as running.
func runningStatus(m *mockProxmoxClient) {
	m.vmStatusFunc = func(ctx context.Context, vmid int) (*proxmox.VMStatus, error) {
		return &proxmox.VMStatus{VMID: vmid, Status: "running", Uptime: 3600, CPU: 0.05, Mem: 512 << 20, MaxMem: 1 << 30}, nil
	}
}

// apiFailure builds a structured Proxmox API error for mock responses.
func apiFailure(body string) error {
	return &proxmox.APIError{
		StatusCode: 500,
		Status:     "500 Internal Server Error",
		Body:       body,
	}
}
