package cmd

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/worckyky/sport-booking-backend/app/entity"
	"github.com/worckyky/sport-booking-backend/app/repository"
	"github.com/worckyky/sport-booking-backend/app/service"

	"github.com/spf13/cobra"
)

const minOldKeyTTLMinutes = 5

var apiKeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys for the internal query proxy",
}

var apiKeyGenerateCmd = &cobra.Command{
	Use:   "generate <service_name>",
	Short: "Generate an API key for a calling service",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		internalAuthService, db, err := newInternalAuthServiceForAPIKeyCommands()
		if err != nil {
			return err
		}
		defer db.Close()

		serviceName := args[0]
		key, err := internalAuthService.GenerateInternalAPIKey(context.Background(), serviceName)
		if err != nil {
			if errors.Is(err, service.ErrServiceHasActiveAPIKey) {
				return fmt.Errorf("service %q already has an active API key, use regenerate", serviceName)
			}
			return err
		}

		fmt.Printf("service_name: %s\n", serviceName)
		fmt.Printf("api_key: %s\n", key)
		fmt.Println("allowed_tables: none (grant with: apikey allow)")
		return nil
	},
}

var apiKeyAllowCmd = &cobra.Command{
	Use:   "allow <service_name> <table>",
	Short: "Allow a service to read a table through /db/query",
	Long:  "Allow a service to read a table through /db/query. Use \"" + entity.WildcardTable + "\" to grant every table.",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		internalAuthService, db, err := newInternalAuthServiceForAPIKeyCommands()
		if err != nil {
			return err
		}
		defer db.Close()

		serviceName := args[0]
		table := args[1]

		if err = internalAuthService.AllowTable(context.Background(), serviceName, table); err != nil {
			if errors.Is(err, service.ErrServiceHasNoActiveAPIKey) {
				return fmt.Errorf("service %q has no active API key", serviceName)
			}
			if errors.Is(err, service.ErrInvalidIdentifier) {
				return fmt.Errorf("%q is not a valid table name", table)
			}
			return err
		}

		fmt.Printf("read access granted: %s -> %s\n", serviceName, table)
		return nil
	},
}

var apiKeyDeactivateCmd = &cobra.Command{
	Use:   "deactivate <service_name>",
	Short: "Deactivate all active API keys of a service",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		internalAuthService, db, err := newInternalAuthServiceForAPIKeyCommands()
		if err != nil {
			return err
		}
		defer db.Close()

		serviceName := args[0]
		count, err := internalAuthService.DeactivateInternalAPIKeys(context.Background(), serviceName)
		if err != nil {
			if errors.Is(err, service.ErrServiceHasNoActiveAPIKey) {
				return fmt.Errorf("service %q has no active API key", serviceName)
			}
			return err
		}

		fmt.Printf("deactivated %d active API key(s) for service %s\n", count, serviceName)
		return nil
	},
}

var apiKeyRegenerateCmd = &cobra.Command{
	Use:   "regenerate <service_name>",
	Short: "Issue a new API key and expire the old ones after a grace period",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		internalAuthService, db, err := newInternalAuthServiceForAPIKeyCommands()
		if err != nil {
			return err
		}
		defer db.Close()

		serviceName := args[0]
		minutes, _ := cmd.Flags().GetInt("old-key-ttl")
		oldKeyTTL, err := resolveOldKeyTTL(minutes)
		if err != nil {
			return err
		}

		newKey, err := internalAuthService.RegenerateInternalAPIKey(context.Background(), serviceName, oldKeyTTL)
		if err != nil {
			if errors.Is(err, service.ErrServiceHasNoActiveAPIKey) {
				return fmt.Errorf("service %q has no active API key", serviceName)
			}
			if errors.Is(err, service.ErrInvalidRegenerationTTL) {
				return fmt.Errorf("old key grace period must be greater than %d minutes", minOldKeyTTLMinutes)
			}
			return err
		}

		fmt.Printf("service_name: %s\n", serviceName)
		fmt.Printf("old_key_expires_at: %s\n", time.Now().Add(oldKeyTTL).Format(time.RFC3339))
		fmt.Printf("new_api_key: %s\n", newKey)
		return nil
	},
}

func init() {
	apiKeyRegenerateCmd.Flags().Int("old-key-ttl", 0, "minutes the old keys stay valid (prompted when omitted)")

	apiKeyCmd.AddCommand(apiKeyGenerateCmd)
	apiKeyCmd.AddCommand(apiKeyAllowCmd)
	apiKeyCmd.AddCommand(apiKeyDeactivateCmd)
	apiKeyCmd.AddCommand(apiKeyRegenerateCmd)
	rootCmd.AddCommand(apiKeyCmd)
}

func newInternalAuthServiceForAPIKeyCommands() (service.InternalAuthService, *sql.DB, error) {
	db, err := openDatabaseFromEnv(context.Background())
	if err != nil {
		return nil, nil, err
	}

	internalAPIKeyRepo := repository.NewInternalAPIKeyRepository(db)
	return service.NewInternalAuthService(internalAPIKeyRepo), db, nil
}

func resolveOldKeyTTL(minutes int) (time.Duration, error) {
	if minutes == 0 {
		return promptOldKeyTTLMinutes()
	}
	if minutes <= minOldKeyTTLMinutes {
		return 0, fmt.Errorf("value must be greater than %d minutes", minOldKeyTTLMinutes)
	}
	return time.Duration(minutes) * time.Minute, nil
}

func promptOldKeyTTLMinutes() (time.Duration, error) {
	const defaultMinutes = 60
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("Expire old key in minutes (>%d) [%d]: ", minOldKeyTTLMinutes, defaultMinutes)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Duration(defaultMinutes) * time.Minute, nil
	}

	minutes, err := strconv.Atoi(input)
	if err != nil {
		return 0, errors.New("invalid number of minutes")
	}
	if minutes <= minOldKeyTTLMinutes {
		return 0, fmt.Errorf("value must be greater than %d minutes", minOldKeyTTLMinutes)
	}

	return time.Duration(minutes) * time.Minute, nil
}
