package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jstrn/ninjarmm/internal/constants"
	"github.com/jstrn/ninjarmm/pkg/ninja"
)

// NewDevicesCommand creates the devices command group.
func NewDevicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "devices",
		Aliases: []string{"device", "dev"},
		Short:   "Manage devices",
		Long:    "List, inspect, search, and act on NinjaRMM devices",
	}

	cmd.AddCommand(newDevicesListCommand())
	cmd.AddCommand(newDevicesGetCommand())
	cmd.AddCommand(newDevicesSearchCommand())
	cmd.AddCommand(newDevicesRebootCommand())
	cmd.AddCommand(newDevicesApproveCommand())
	cmd.AddCommand(newDevicesMaintenanceCommand())

	return cmd
}

func newDevicesListCommand() *cobra.Command {
	var (
		allPages     bool
		pageSize     int
		deviceFilter string
		expand       []string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List devices",
		Long:  "List devices, optionally filtered with the NinjaRMM device filter syntax",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Flag("instance").Value.String())
			if err != nil {
				return err
			}

			ctx := context.Background()

			params := ninja.NewQueryParams().WithPageSize(pageSize)
			if deviceFilter != "" {
				params.WithDeviceFilter(deviceFilter)
			}

			if len(expand) > 0 {
				params.WithExpand(expand...)
			}

			var devices []ninja.Record
			if allPages {
				devices, err = client.Devices().ListAll(ctx, params)
			} else {
				devices, err = client.Devices().List(ctx, params)
			}

			if err != nil {
				return fmt.Errorf("failed to list devices: %w", err)
			}

			return outputDevices(devices)
		},
	}

	cmd.Flags().BoolVar(&allPages, "all", false, "fetch all pages")
	cmd.Flags().IntVar(&pageSize, "page-size", constants.DefaultPageSize, "results per page")
	cmd.Flags().StringVar(&deviceFilter, "filter", "", "device filter (e.g. 'org = 1 AND class = WINDOWS_WORKSTATION')")
	cmd.Flags().StringSliceVar(&expand, "expand", nil, "related objects to inline (e.g. organization,location)")

	return cmd
}

func outputDevices(devices []ninja.Record) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(devices)
	case OutputFormatYAML:
		return StandardYAMLRenderer(devices)
	default:
		return renderDevicesTable(devices)
	}
}

func renderDevicesTable(devices []ninja.Record) error {
	if len(devices) == 0 {
		_, _ = os.Stdout.WriteString("No devices found\n")

		return nil
	}

	return renderRecordsTable(
		[]string{"ID", "System Name", "Class", "Org", "Offline", "Last Contact"},
		[]string{"id", "systemName", "nodeClass", "organizationId", "offline", "lastContact"},
		devices,
	)
}

func newDevicesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get DEVICE_ID",
		Short: "Get device details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deviceID, err := parseIntArg(args[0], ErrInvalidDeviceID)
			if err != nil {
				return err
			}

			client, err := CreateClient(cmd.Flag("instance").Value.String())
			if err != nil {
				return err
			}

			device, err := client.Devices().Get(context.Background(), deviceID)
			if err != nil {
				return fmt.Errorf("failed to get device: %w", err)
			}

			return outputRecord(device)
		},
	}
}

func newDevicesSearchCommand() *cobra.Command {
	var (
		allPages bool
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search devices",
		Long:  "Free-text search across devices using /v2/devices/search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "" {
				return ErrSearchQueryRequired
			}

			client, err := CreateClient(cmd.Flag("instance").Value.String())
			if err != nil {
				return err
			}

			ctx := context.Background()
			params := ninja.NewQueryParams().WithQuery(args[0]).WithPageSize(pageSize)

			var devices []ninja.Record
			if allPages {
				devices, err = client.Devices().SearchAll(ctx, params)
			} else {
				result, searchErr := client.Devices().Search(ctx, params)
				if searchErr == nil {
					devices = result.Results
				}

				err = searchErr
			}

			if err != nil {
				return fmt.Errorf("failed to search devices: %w", err)
			}

			return outputDevices(devices)
		},
	}

	cmd.Flags().BoolVar(&allPages, "all", false, "fetch all pages")
	cmd.Flags().IntVar(&pageSize, "page-size", constants.DefaultPageSize, "results per page")

	return cmd
}

func newDevicesRebootCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "reboot DEVICE_ID",
		Short: "Reboot a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deviceID, err := parseIntArg(args[0], ErrInvalidDeviceID)
			if err != nil {
				return err
			}

			client, err := CreateClient(cmd.Flag("instance").Value.String())
			if err != nil {
				return err
			}

			err = client.Devices().Reboot(context.Background(), deviceID, mode)
			if err != nil {
				return fmt.Errorf("failed to reboot device: %w", err)
			}

			fmt.Printf("Reboot (%s) requested for device %d\n", mode, deviceID)

			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "NORMAL", "reboot mode (NORMAL or FORCED)")

	return cmd
}

func newDevicesApproveCommand() *cobra.Command {
	var reject bool

	cmd := &cobra.Command{
		Use:   "approve DEVICE_ID...",
		Short: "Approve or reject pending devices",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deviceIDs := make([]int, 0, len(args))

			for _, arg := range args {
				deviceID, err := parseIntArg(arg, ErrInvalidDeviceID)
				if err != nil {
					return err
				}

				deviceIDs = append(deviceIDs, deviceID)
			}

			if len(deviceIDs) == 0 {
				return ErrAtLeastOneDeviceRequired
			}

			client, err := CreateClient(cmd.Flag("instance").Value.String())
			if err != nil {
				return err
			}

			mode := ninja.ApprovalApprove
			if reject {
				mode = ninja.ApprovalReject
			}

			err = client.Devices().Approve(context.Background(), mode, deviceIDs)
			if err != nil {
				return fmt.Errorf("failed to update device approval: %w", err)
			}

			fmt.Printf("%s applied to %d device(s)\n", mode, len(deviceIDs))

			return nil
		},
	}

	cmd.Flags().BoolVar(&reject, "reject", false, "reject instead of approve")

	return cmd
}

func newDevicesMaintenanceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Manage device maintenance windows",
	}

	cmd.AddCommand(newMaintenanceSetCommand())
	cmd.AddCommand(newMaintenanceCancelCommand())

	return cmd
}

func newMaintenanceSetCommand() *cobra.Command {
	var (
		start            float64
		end              float64
		disabledFeatures []string
		reason           string
	)

	cmd := &cobra.Command{
		Use:   "set DEVICE_ID",
		Short: "Schedule a maintenance window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deviceID, err := parseIntArg(args[0], ErrInvalidDeviceID)
			if err != nil {
				return err
			}

			if start == 0 || end == 0 {
				return ErrMaintenanceWindowRequired
			}

			client, err := CreateClient(cmd.Flag("instance").Value.String())
			if err != nil {
				return err
			}

			req := &ninja.MaintenanceRequest{
				Start:             start,
				End:               end,
				DisabledFeatures:  disabledFeatures,
				ReasonForDisabled: reason,
			}

			err = client.Devices().SetMaintenance(context.Background(), deviceID, req)
			if err != nil {
				return fmt.Errorf("failed to set maintenance window: %w", err)
			}

			fmt.Printf("Maintenance window set on device %d\n", deviceID)

			return nil
		},
	}

	cmd.Flags().Float64Var(&start, "start", 0, "window start as a Unix epoch (required)")
	cmd.Flags().Float64Var(&end, "end", 0, "window end as a Unix epoch (required)")
	cmd.Flags().StringSliceVar(&disabledFeatures, "disable", nil, "features to disable (e.g. ALERTS,PATCHING)")
	cmd.Flags().StringVar(&reason, "reason", "", "reason for the maintenance window")

	return cmd
}

func newMaintenanceCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel DEVICE_ID",
		Short: "Cancel a maintenance window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deviceID, err := parseIntArg(args[0], ErrInvalidDeviceID)
			if err != nil {
				return err
			}

			client, err := CreateClient(cmd.Flag("instance").Value.String())
			if err != nil {
				return err
			}

			err = client.Devices().CancelMaintenance(context.Background(), deviceID)
			if err != nil {
				return fmt.Errorf("failed to cancel maintenance window: %w", err)
			}

			fmt.Printf("Maintenance window cancelled on device %d\n", deviceID)

			return nil
		},
	}
}
