package cmd

import (
	"context"
	"fmt"

	"github.com/worckyky/sport-booking-backend/app/database"
	"github.com/worckyky/sport-booking-backend/migrations"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := context.Background()
		db, err := openDatabaseFromEnv(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		migrator := database.NewMigrator(db, migrations.FS)

		showStatus, _ := cmd.Flags().GetBool("status")
		if showStatus {
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return err
			}
			for _, status := range statuses {
				state := "pending"
				if status.Applied {
					state = "applied " + status.ExecutedAt.Time.Format("2006-01-02 15:04:05")
				}
				fmt.Printf("%-45s %s\n", status.Name, state)
			}
			return nil
		}

		applied, err := migrator.Up(ctx)
		for _, name := range applied {
			fmt.Printf("applied: %s\n", name)
		}
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Println("nothing to migrate")
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().Bool("status", false, "list migrations and whether they were applied")
	rootCmd.AddCommand(migrateCmd)
}
