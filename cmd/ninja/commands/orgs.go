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

// NewOrgsCommand creates the organizations command group.
func NewOrgsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orgs",
		Aliases: []string{"organizations", "org"},
		Short:   "Manage organizations",
		Long:    "List, create, update, and delete NinjaRMM organizations",
	}

	cmd.AddCommand(newOrgsListCommand())
	cmd.AddCommand(newOrgsGetCommand())
	cmd.AddCommand(newOrgsCreateCommand())
	cmd.AddCommand(newOrgsUpdateCommand())
	cmd.AddCommand(newOrgsDeleteCommand())

	return cmd
}

func newOrgsListCommand() *cobra.Command {
	var (
		allPages bool
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List organizations",
		Long:  "List all organizations visible to the configured credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrgsListCommand(cmd, allPages, pageSize)
		},
	}

	cmd.Flags().BoolVar(&allPages, "all", false, "fetch all pages")
	cmd.Flags().IntVar(&pageSize, "page-size", constants.DefaultPageSize, "results per page")

	return cmd
}

func runOrgsListCommand(cmd *cobra.Command, allPages bool, pageSize int) error {
	client, err := CreateClient(cmd.Flag("instance").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()
	params := ninja.NewQueryParams().WithPageSize(pageSize)

	var orgs []ninja.Record
	if allPages {
		orgs, err = client.Organizations().ListAll(ctx, params)
	} else {
		orgs, err = client.Organizations().List(ctx, params)
	}

	if err != nil {
		return fmt.Errorf("failed to list organizations: %w", err)
	}

	return outputOrganizations(orgs)
}

func outputOrganizations(orgs []ninja.Record) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(orgs)
	case OutputFormatYAML:
		return StandardYAMLRenderer(orgs)
	default:
		return renderOrganizationsTable(orgs)
	}
}

func renderOrganizationsTable(orgs []ninja.Record) error {
	if len(orgs) == 0 {
		_, _ = os.Stdout.WriteString("No organizations found\n")

		return nil
	}

	return renderRecordsTable(
		[]string{"ID", "Name", "Description", "Node Approval"},
		[]string{"id", "name", "description", "nodeApprovalMode"},
		orgs,
	)
}

func newOrgsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ORG_ID",
		Short: "Get organization details",
		Long:  "Display detailed information about a specific organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orgID, err := parseIntArg(args[0], ErrInvalidOrganizationID)
			if err != nil {
				return err
			}

			client, err := CreateClient(cmd.Flag("instance").Value.String())
			if err != nil {
				return err
			}

			org, err := client.Organizations().Get(context.Background(), orgID)
			if err != nil {
				return fmt.Errorf("failed to get organization: %w", err)
			}

			return outputRecord(org)
		},
	}
}

// outputRecord renders a single record in the configured output format.
func outputRecord(record ninja.Record) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(record)
	case OutputFormatYAML:
		return StandardYAMLRenderer(record)
	default:
		return renderRecordDetails(record)
	}
}

func newOrgsCreateCommand() *cobra.Command {
	var (
		name        string
		description string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return ErrOrganizationNameRequired
			}

			client, err := CreateClient(cmd.Flag("instance").Value.String())
			if err != nil {
				return err
			}

			org := ninja.Record{"name": name}
			if description != "" {
				org["description"] = description
			}

			created, err := client.Organizations().Create(context.Background(), org)
			if err != nil {
				return fmt.Errorf("failed to create organization: %w", err)
			}

			fmt.Printf("Organization '%s' created\n", name)

			return outputRecord(created)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "organization name (required)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "organization description")

	return cmd
}

func newOrgsUpdateCommand() *cobra.Command {
	var (
		name        string
		description string
	)

	cmd := &cobra.Command{
		Use:   "update ORG_ID",
		Short: "Update an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orgID, err := parseIntArg(args[0], ErrInvalidOrganizationID)
			if err != nil {
				return err
			}

			client, err := CreateClient(cmd.Flag("instance").Value.String())
			if err != nil {
				return err
			}

			update := ninja.Record{}
			if name != "" {
				update["name"] = name
			}

			if description != "" {
				update["description"] = description
			}

			updated, err := client.Organizations().Update(context.Background(), orgID, update)
			if err != nil {
				return fmt.Errorf("failed to update organization: %w", err)
			}

			return outputRecord(updated)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "new organization name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new organization description")

	return cmd
}

func newOrgsDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete ORG_ID",
		Short: "Delete an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orgID, err := parseIntArg(args[0], ErrInvalidOrganizationID)
			if err != nil {
				return err
			}

			if !force {
				fmt.Printf("Really delete organization %d? (y/N): ", orgID)

				var response string

				_, _ = fmt.Scanln(&response)
				if response != "y" && response != "Y" {
					fmt.Println("Cancelled")

					return nil
				}
			}

			client, err := CreateClient(cmd.Flag("instance").Value.String())
			if err != nil {
				return err
			}

			err = client.Organizations().Delete(context.Background(), orgID)
			if err != nil {
				return fmt.Errorf("failed to delete organization: %w", err)
			}

			fmt.Printf("Organization %d deleted\n", orgID)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete without confirmation")

	return cmd
}
