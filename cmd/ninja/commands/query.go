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

// NewQueryCommand creates the query command group.
func NewQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "query",
		Aliases: []string{"queries"},
		Short:   "Run device queries",
		Long:    "Run NinjaRMM /v2/queries endpoints across the device fleet",
	}

	cmd.AddCommand(newQueryRunCommand())
	cmd.AddCommand(newQueryWindowsServicesCommand())
	cmd.AddCommand(newQueryCustomFieldsCommand())
	cmd.AddCommand(newQueryOSPatchesCommand())

	return cmd
}

// queryFlags holds the flags shared by all query subcommands.
type queryFlags struct {
	allPages     bool
	pageSize     int
	deviceFilter string
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.allPages, "all", false, "fetch all pages")
	cmd.Flags().IntVar(&f.pageSize, "page-size", constants.DefaultPageSize, "results per page")
	cmd.Flags().StringVar(&f.deviceFilter, "filter", "", "device filter (e.g. 'org = 1')")
}

func (f *queryFlags) params() *ninja.QueryParams {
	params := ninja.NewQueryParams().WithPageSize(f.pageSize)
	if f.deviceFilter != "" {
		params.WithDeviceFilter(f.deviceFilter)
	}

	return params
}

// runQuery executes one page or all pages of a cursor-paginated query and
// renders the records.
func runQuery(cmd *cobra.Command, flags *queryFlags,
	one func(context.Context, ninja.Client, *ninja.QueryParams) (*ninja.QueryResult, error),
	all func(context.Context, ninja.Client, *ninja.QueryParams) ([]ninja.Record, error),
) error {
	client, err := CreateClient(cmd.Flag("instance").Value.String())
	if err != nil {
		return err
	}

	ctx := context.Background()
	params := flags.params()

	var records []ninja.Record
	if flags.allPages {
		records, err = all(ctx, client, params)
	} else {
		result, queryErr := one(ctx, client, params)
		if queryErr == nil {
			records = result.Results
		}

		err = queryErr
	}

	if err != nil {
		return fmt.Errorf("failed to run query: %w", err)
	}

	return outputQueryRecords(records)
}

func outputQueryRecords(records []ninja.Record) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(records)
	case OutputFormatYAML:
		return StandardYAMLRenderer(records)
	default:
		if len(records) == 0 {
			_, _ = os.Stdout.WriteString("No results\n")

			return nil
		}

		// Query payloads vary per endpoint; render each record as its
		// own property table.
		for _, record := range records {
			if err := renderRecordDetails(record); err != nil {
				return err
			}
		}

		return nil
	}
}

func newQueryRunCommand() *cobra.Command {
	flags := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "run NAME",
		Short: "Run an arbitrary query endpoint",
		Long:  "Run any /v2/queries/{name} endpoint, e.g. 'ninja query run antivirus-status'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			return runQuery(cmd, flags,
				func(ctx context.Context, client ninja.Client, params *ninja.QueryParams) (*ninja.QueryResult, error) {
					return client.Queries().Query(ctx, name, params)
				},
				func(ctx context.Context, client ninja.Client, params *ninja.QueryParams) ([]ninja.Record, error) {
					// Walk the cursor by hand; the generic endpoint has no
					// dedicated All helper.
					var records []ninja.Record

					for {
						result, err := client.Queries().Query(ctx, name, params)
						if err != nil {
							return nil, err
						}

						if !result.HasResultsKey() {
							return records, nil
						}

						records = append(records, result.Results...)

						next := result.NextCursor()
						if next == "" {
							return records, nil
						}

						params = params.Clone().WithCursor(next)
					}
				},
			)
		},
	}

	flags.register(cmd)

	return cmd
}

func newQueryWindowsServicesCommand() *cobra.Command {
	flags := &queryFlags{}

	var (
		name  string
		state string
	)

	cmd := &cobra.Command{
		Use:   "windows-services",
		Short: "Query Windows services",
		RunE: func(cmd *cobra.Command, args []string) error {
			withFilters := func(params *ninja.QueryParams) *ninja.QueryParams {
				if name != "" {
					params.WithName(name)
				}

				if state != "" {
					params.WithState(state)
				}

				return params
			}

			return runQuery(cmd, flags,
				func(ctx context.Context, client ninja.Client, params *ninja.QueryParams) (*ninja.QueryResult, error) {
					return client.Queries().WindowsServices(ctx, withFilters(params))
				},
				func(ctx context.Context, client ninja.Client, params *ninja.QueryParams) ([]ninja.Record, error) {
					return client.Queries().AllWindowsServices(ctx, withFilters(params))
				},
			)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "service name filter")
	cmd.Flags().StringVar(&state, "state", "", "service state filter (e.g. RUNNING)")

	return cmd
}

func newQueryCustomFieldsCommand() *cobra.Command {
	flags := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "custom-fields",
		Short: "Query device custom fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, flags,
				func(ctx context.Context, client ninja.Client, params *ninja.QueryParams) (*ninja.QueryResult, error) {
					return client.Queries().CustomFields(ctx, params)
				},
				func(ctx context.Context, client ninja.Client, params *ninja.QueryParams) ([]ninja.Record, error) {
					return client.Queries().AllCustomFields(ctx, params)
				},
			)
		},
	}

	flags.register(cmd)

	return cmd
}

func newQueryOSPatchesCommand() *cobra.Command {
	flags := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "os-patches",
		Short: "Query OS patch status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, flags,
				func(ctx context.Context, client ninja.Client, params *ninja.QueryParams) (*ninja.QueryResult, error) {
					return client.Queries().OSPatches(ctx, params)
				},
				func(ctx context.Context, client ninja.Client, params *ninja.QueryParams) ([]ninja.Record, error) {
					return client.Queries().AllOSPatches(ctx, params)
				},
			)
		},
	}

	flags.register(cmd)

	return cmd
}
