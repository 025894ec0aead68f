// Command pvebridge is a per-invocation bridge between an orchestrating
// application and a Proxmox VE node. It executes exactly one VM operation
// and writes exactly one JSON result record to stdout; everything else
// (logging included) goes to stderr. The exit code is 0 when the result
// reports success and 1 otherwise.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nexus-iaas/pvebridge/internal/bridge"
	"github.com/nexus-iaas/pvebridge/internal/config"
	"github.com/nexus-iaas/pvebridge/internal/proxmox"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	result := run(os.Args[1:])

	if err := result.Write(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(result.ExitCode())
}

// run executes one invocation end to end and always returns a result,
// even when the invocation panics. This is the outermost boundary that
// guarantees the caller gets a parseable record no matter what.
func run(args []string) (result *bridge.Result) {
	log := newLogger()

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("unanticipated failure")
			result = bridge.FatalFailure(r)
		}
	}()

	req := &bridge.Request{}
	var node string

	cmd := &cobra.Command{
		Use:   "pvebridge",
		Short: "Proxmox VE bridge for VM lifecycle operations",
		Long: `pvebridge translates one VM lifecycle request into Proxmox VE API calls
and reports the outcome as a single JSON record on stdout.

Connection parameters come from the environment: PROXMOX_HOST,
PROXMOX_USER, PROXMOX_PASSWORD, PROXMOX_NODE (default "pve"), and
PROXMOX_VERIFY_SSL.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(node)
			if err != nil {
				log.WithError(err).Error("configuration incomplete")
				result = bridge.ConfigFailure(err)
				return nil
			}

			client := proxmox.NewClient(proxmox.Options{
				Host:      cfg.Host,
				User:      cfg.User,
				Password:  cfg.Password,
				Node:      cfg.Node,
				VerifyTLS: cfg.VerifyTLS,
			}, log)

			result = bridge.New(client, log).Dispatch(cmd.Context(), req)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.Action, "action", "", "action to perform: create, start, stop, reboot, delete, status, console, snapshot_list, snapshot_create")
	flags.IntVar(&req.VMID, "vmid", 0, "VM ID")
	flags.StringVar(&req.Name, "name", "", "VM name (create)")
	flags.IntVar(&req.VCPU, "vcpu", 0, "number of CPU cores (create)")
	flags.IntVar(&req.RAMMB, "ram", 0, "RAM in MB (create)")
	flags.IntVar(&req.DiskGB, "disk", 0, "disk size in GB (create)")
	flags.StringVar(&req.OSTemplate, "os-template", "", "OS template name (create)")
	flags.StringVar(&req.IPAddress, "ip-address", "", "static IP address (create)")
	flags.StringVar(&req.Gateway, "gateway", "", "network gateway (create)")
	flags.StringVar(&node, "node", "", "Proxmox node name (overrides PROXMOX_NODE)")
	flags.BoolVar(&req.Force, "force", false, "force the operation (stop)")
	flags.StringVar(&req.SnapshotName, "snapshot-name", "", "snapshot name (snapshot_create)")
	flags.StringVar(&req.SnapshotDescription, "snapshot-description", "", "snapshot description (snapshot_create)")

	// A submitted job cannot be withdrawn, but the waits around it honor
	// termination so the orchestrator can abandon an invocation cleanly.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		result = bridge.InvalidArguments(err)
	}
	if result == nil {
		// Help and version requests never reach RunE.
		result = &bridge.Result{Success: true}
	}
	return result
}

// newLogger builds the stderr logger shared by the whole invocation.
// Every line carries the invocation id so the orchestrator's logs can be
// correlated with ours.
func newLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if os.Getenv("PVEBRIDGE_DEBUG") != "" {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger.WithField("invocation", uuid.NewString())
}
