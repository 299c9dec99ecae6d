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

// NewTagsCommand creates the tags command group.
func NewTagsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tags",
		Aliases: []string{"tag"},
		Short:   "Manage tags",
		Long:    "List, create, and delete NinjaRMM tags",
	}

	cmd.AddCommand(newTagsListCommand())
	cmd.AddCommand(newTagsCreateCommand())
	cmd.AddCommand(newTagsDeleteCommand())

	return cmd
}

func newTagsListCommand() *cobra.Command {
	var (
		allPages bool
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd.Flag("instance").Value.String())
			if err != nil {
				return err
			}

			ctx := context.Background()
			params := ninja.NewQueryParams().WithPageSize(pageSize)

			var tags []ninja.Record
			if allPages {
				tags, err = client.Tags().ListAll(ctx, params)
			} else {
				tags, err = client.Tags().List(ctx, params)
			}

			if err != nil {
				return fmt.Errorf("failed to list tags: %w", err)
			}

			return outputTags(tags)
		},
	}

	cmd.Flags().BoolVar(&allPages, "all", false, "fetch all pages")
	cmd.Flags().IntVar(&pageSize, "page-size", constants.DefaultPageSize, "results per page")

	return cmd
}

func outputTags(tags []ninja.Record) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(tags)
	case OutputFormatYAML:
		return StandardYAMLRenderer(tags)
	default:
		if len(tags) == 0 {
			_, _ = os.Stdout.WriteString("No tags found\n")

			return nil
		}

		return renderRecordsTable(
			[]string{"ID", "Name"},
			[]string{"id", "name"},
			tags,
		)
	}
}

func newTagsCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "" {
				return ErrTagNameRequired
			}

			client, err := CreateClient(cmd.Flag("instance").Value.String())
			if err != nil {
				return err
			}

			created, err := client.Tags().Create(context.Background(), ninja.Record{"name": args[0]})
			if err != nil {
				return fmt.Errorf("failed to create tag: %w", err)
			}

			fmt.Printf("Tag '%s' created\n", args[0])

			return outputRecord(created)
		},
	}
}

func newTagsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete TAG_ID",
		Short: "Delete a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tagID, err := parseIntArg(args[0], ErrInvalidTagID)
			if err != nil {
				return err
			}

			client, err := CreateClient(cmd.Flag("instance").Value.String())
			if err != nil {
				return err
			}

			err = client.Tags().Delete(context.Background(), tagID)
			if err != nil {
				return fmt.Errorf("failed to delete tag: %w", err)
			}

			fmt.Printf("Tag %d deleted\n", tagID)

			return nil
		},
	}
}
