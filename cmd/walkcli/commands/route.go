package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"walkcli/internal/services"
)

func newRouteCommand(global *globalOptions) *cobra.Command {
	req := services.RouteRequest{}

	cmd := &cobra.Command{
		Use:   "route WORKOUT_ID",
		Short: "Export the track of one workout",
		Long: `Route prints the ordered samples of one workout, or writes them to a CSV
file with --out. Workout ids are only valid within the database they
came from.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(global)
			if err != nil {
				return err
			}
			defer a.close()

			req.WorkoutID = args[0]
			route, err := a.service.Route(cmd.Context(), req)
			if err != nil {
				return err
			}

			if req.OutputPath != "" {
				fmt.Fprintln(global.stdout, req.OutputPath)
				return nil
			}
			renderRoute(global.stdout, req.WorkoutID, route)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.DatabasePath, "db", "", "raw database (default: newest dated database)")
	cmd.Flags().StringVarP(&req.OutputPath, "out", "o", "", "write the route as CSV")
	return cmd
}
