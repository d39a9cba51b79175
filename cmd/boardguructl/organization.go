package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/identity"
	"github.com/appboardguru/boardguru/pkg/service"
)

// organizationCmd represents the organization command
var organizationCmd = &cobra.Command{
	Use:   "organization",
	Short: "Manage organizations",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'organization' requires a subcommand (create)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

var organizationCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an organization with its owner",
	Long: `Create an organization, its owner membership and its default vault.

The owner is identified by the user ID (the JWT subject) and email of an
existing identity provider account. Use this command to bootstrap the first
organization of a new installation.

Example:
  boardguructl organization create --name "Acme Holdings" --slug acme \
    --owner-id 3b0e6a4e-7c55-4f1e-9a43-0b6e1f1c2d3e --owner-email chair@acme.example`,
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")
		slug, _ := cmd.Flags().GetString("slug")
		ownerID, _ := cmd.Flags().GetString("owner-id")
		ownerEmail, _ := cmd.Flags().GetString("owner-email")

		if err := createOrganization(name, slug, ownerID, ownerEmail); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create organization: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(organizationCmd)
	organizationCmd.AddCommand(organizationCreateCmd)

	organizationCreateCmd.Flags().String("name", "", "organization name")
	organizationCreateCmd.Flags().String("slug", "", "organization slug")
	organizationCreateCmd.Flags().String("owner-id", "", "user ID of the owner")
	organizationCreateCmd.Flags().String("owner-email", "", "email of the owner")
	for _, f := range []string{"name", "slug", "owner-id", "owner-email"} {
		_ = organizationCreateCmd.MarkFlagRequired(f)
	}
}

func createOrganization(name, slug, ownerID, ownerEmail string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	owner := &identity.Identity{UserID: ownerID, Email: ownerEmail}
	org, err := a.services.Organizations.Create(ctx, owner, service.CreateOrganizationInput{
		Name: name,
		Slug: slug,
	})
	if err != nil {
		e := apperr.From(err)
		if e.Field != "" {
			return fmt.Errorf("%s: %s", e.Field, e.Message)
		}
		return e
	}

	fmt.Printf("Created organization %s (%s)\n", org.Slug, org.ID)
	return nil
}
