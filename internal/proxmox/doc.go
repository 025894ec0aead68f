// Package proxmox is a minimal Proxmox VE API client covering the
// operations the bridge needs: VM lifecycle commands, status queries,
// snapshot management, VNC proxy tickets, and task status polling.
//
// It is deliberately not a general Proxmox client. All requests target a
// single node, authentication uses the ticket endpoint (no API tokens),
// and responses are decoded only as far as the bridge consumes them.
//
// Consumer-Side Interfaces:
//
// This package does not define interfaces. Consumers (internal/bridge)
// define their own client interface specifying only the operations they
// need; *Client satisfies it implicitly, enabling mock substitution in
// tests.
package proxmox
