package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/appboardguru/boardguru/pkg/idgen"
)

// secretGenerateCmd represents the secret > generate command
var secretGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a JWT signing secret",
	Long: `
Generate a JWT signing secret

Use this command to generate a random secret for verifying HS256 access
tokens in development. In production the secret is the JWT secret of the
identity provider that issues the tokens.

Example:

$ export BOARDGURU_JWT_SECRET="$(boardguructl secret generate)"
`,
	Run: func(cmd *cobra.Command, args []string) {
		secret, err := idgen.Secret()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate secret: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s", secret)
	},
}

func init() {
	secretCmd.AddCommand(secretGenerateCmd)
}
