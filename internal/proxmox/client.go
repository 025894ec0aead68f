package proxmox

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

// apiPort is the Proxmox VE management port.
const apiPort = 8006

// Options configures a Client connection.
type Options struct {
	Host     string // Proxmox host IP or domain, without scheme or port
	User     string // e.g. "root@pam"
	Password string
	Node     string // node name, e.g. "pve"

	// VerifyTLS controls certificate verification. Proxmox nodes commonly
	// run with self-signed certificates, so this defaults to off upstream.
	VerifyTLS bool
}

// Client talks to the Proxmox VE API for a single node.
//
// Authentication is lazy: the first request obtains a ticket via
// POST /access/ticket and reuses it for the rest of the invocation.
// Read requests (GET) may be retried on transient transport failures;
// mutating requests are issued at most once.
type Client struct {
	opts    Options
	baseURL string

	// reads retries idempotent GETs; mutations never retries.
	reads     *http.Client
	mutations *http.Client

	log logrus.FieldLogger

	ticket    string
	csrfToken string
}

// NewClient creates a Client for the given connection options.
// No network traffic happens until the first request.
func NewClient(opts Options, log logrus.FieldLogger) *Client {
	transport := cleanhttp.DefaultPooledTransport()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: !opts.VerifyTLS} //nolint:gosec

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.HTTPClient.Transport = transport
	retryClient.Logger = nil // suppress default logging

	return &Client{
		opts:      opts,
		baseURL:   fmt.Sprintf("https://%s:%d/api2/json", opts.Host, apiPort),
		reads:     retryClient.StandardClient(),
		mutations: &http.Client{Transport: transport},
		log:       log,
	}
}

// Host returns the configured Proxmox host.
func (c *Client) Host() string { return c.opts.Host }

// Node returns the configured Proxmox node name.
func (c *Client) Node() string { return c.opts.Node }

// Login authenticates against POST /access/ticket and stores the session
// ticket and CSRF prevention token. It is called automatically before the
// first API request.
func (c *Client) Login(ctx context.Context) error {
	form := url.Values{}
	form.Set("username", c.opts.User)
	form.Set("password", c.opts.Password)

	var session struct {
		Ticket    string `json:"ticket"`
		CSRFToken string `json:"CSRFPreventionToken"`
	}
	if err := c.do(ctx, http.MethodPost, "/access/ticket", form, &session); err != nil {
		return fmt.Errorf("failed to authenticate with Proxmox at %s: %w", c.opts.Host, err)
	}
	if session.Ticket == "" {
		return fmt.Errorf("authentication with Proxmox at %s returned an empty ticket", c.opts.Host)
	}

	c.ticket = session.Ticket
	c.csrfToken = session.CSRFToken
	c.log.WithField("host", c.opts.Host).Debug("authenticated with Proxmox")
	return nil
}

// VMStatus fetches the current state of a VM.
func (c *Client) VMStatus(ctx context.Context, vmid int) (*VMStatus, error) {
	var status VMStatus
	path := fmt.Sprintf("/nodes/%s/qemu/%d/status/current", c.opts.Node, vmid)
	if err := c.do(ctx, http.MethodGet, path, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// StartVM submits a start job and returns its task reference.
func (c *Client) StartVM(ctx context.Context, vmid int) (string, error) {
	return c.power(ctx, vmid, "start")
}

// ShutdownVM submits a graceful shutdown job and returns its task reference.
func (c *Client) ShutdownVM(ctx context.Context, vmid int) (string, error) {
	return c.power(ctx, vmid, "shutdown")
}

// StopVM submits an immediate (hard) stop job and returns its task reference.
func (c *Client) StopVM(ctx context.Context, vmid int) (string, error) {
	return c.power(ctx, vmid, "stop")
}

// RebootVM submits a reboot job and returns its task reference.
func (c *Client) RebootVM(ctx context.Context, vmid int) (string, error) {
	return c.power(ctx, vmid, "reboot")
}

func (c *Client) power(ctx context.Context, vmid int, command string) (string, error) {
	var upid string
	path := fmt.Sprintf("/nodes/%s/qemu/%d/status/%s", c.opts.Node, vmid, command)
	if err := c.do(ctx, http.MethodPost, path, url.Values{}, &upid); err != nil {
		return "", err
	}
	return upid, nil
}

// CreateVM submits a VM creation job and returns its task reference.
func (c *Client) CreateVM(ctx context.Context, req CreateRequest) (string, error) {
	form := url.Values{}
	form.Set("vmid", strconv.Itoa(req.VMID))
	form.Set("name", req.Name)
	form.Set("cores", strconv.Itoa(req.Cores))
	form.Set("memory", strconv.Itoa(req.MemoryMB))
	form.Set("net0", "virtio,bridge=vmbr0,firewall=1")
	form.Set("ostype", "l26")
	form.Set("bootdisk", "scsi0")
	form.Set("scsihw", "virtio-scsi-pci")
	form.Set("scsi0", fmt.Sprintf("local-lvm:%d", req.DiskGB))
	form.Set("ide2", fmt.Sprintf("local:iso/%s.iso,media=cdrom", req.OSTemplate))
	if req.Description != "" {
		form.Set("description", req.Description)
	}

	var upid string
	path := fmt.Sprintf("/nodes/%s/qemu", c.opts.Node)
	if err := c.do(ctx, http.MethodPost, path, form, &upid); err != nil {
		return "", err
	}
	return upid, nil
}

// DeleteVM submits a deletion job and returns its task reference.
// With purge set, the VM is also removed from backup job membership
// and its disks are destroyed.
func (c *Client) DeleteVM(ctx context.Context, vmid int, purge bool) (string, error) {
	path := fmt.Sprintf("/nodes/%s/qemu/%d", c.opts.Node, vmid)
	if purge {
		path += "?purge=1&destroy-unreferenced-disks=1"
	}

	var upid string
	if err := c.do(ctx, http.MethodDelete, path, url.Values{}, &upid); err != nil {
		return "", err
	}
	return upid, nil
}

// VNCProxy requests a short-lived VNC proxy ticket for a running VM.
func (c *Client) VNCProxy(ctx context.Context, vmid int) (*VNCProxy, error) {
	var proxy VNCProxy
	path := fmt.Sprintf("/nodes/%s/qemu/%d/vncproxy", c.opts.Node, vmid)
	if err := c.do(ctx, http.MethodPost, path, url.Values{}, &proxy); err != nil {
		return nil, err
	}
	return &proxy, nil
}

// ListSnapshots returns all snapshot entries for a VM, including the
// implicit "current" pseudo-entry, in API order.
func (c *Client) ListSnapshots(ctx context.Context, vmid int) ([]Snapshot, error) {
	var snapshots []Snapshot
	path := fmt.Sprintf("/nodes/%s/qemu/%d/snapshot", c.opts.Node, vmid)
	if err := c.do(ctx, http.MethodGet, path, nil, &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// CreateSnapshot submits a snapshot job and returns its task reference.
// The snapshot excludes in-memory VM state (vmstate=0), which is faster
// and matches what the upstream orchestrator expects.
func (c *Client) CreateSnapshot(ctx context.Context, vmid int, name, description string) (string, error) {
	form := url.Values{}
	form.Set("snapname", name)
	form.Set("description", description)
	form.Set("vmstate", "0")

	var upid string
	path := fmt.Sprintf("/nodes/%s/qemu/%d/snapshot", c.opts.Node, vmid)
	if err := c.do(ctx, http.MethodPost, path, form, &upid); err != nil {
		return "", err
	}
	return upid, nil
}

// TaskStatus fetches the status of an asynchronous task by its UPID.
func (c *Client) TaskStatus(ctx context.Context, upid string) (*TaskStatus, error) {
	var status TaskStatus
	path := fmt.Sprintf("/nodes/%s/tasks/%s/status", c.opts.Node, url.PathEscape(upid))
	if err := c.do(ctx, http.MethodGet, path, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// do performs one API request and decodes the "data" field of the response
// into out. A form of nil means a request without a body (GET); a non-nil
// form (even empty) is sent as application/x-www-form-urlencoded.
func (c *Client) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	login := path == "/access/ticket"
	if !login && c.ticket == "" {
		if err := c.Login(ctx); err != nil {
			return err
		}
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if !login {
		req.AddCookie(&http.Cookie{Name: "PVEAuthCookie", Value: c.ticket})
		if method != http.MethodGet {
			req.Header.Set("CSRFPreventionToken", c.csrfToken)
		}
	}

	httpClient := c.mutations
	if method == http.MethodGet {
		httpClient = c.reads
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Debug("Proxmox API request failed")
		return &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	if out == nil {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		// Some endpoints (notably task submissions during node maintenance)
		// legitimately return data: null. Leave out at its zero value.
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response data: %w", method, path, err)
	}
	return nil
}
