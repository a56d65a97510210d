package cmd

import (
	"fmt"

	"github.com/ardanlabs/utxoledger/foundation/nameservice"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate <name>",
	Short: "Generate a new key pair for the name",
	Args:  cobra.ExactArgs(1),
	RunE:  generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) error {
	name := args[0]

	ns, err := nameservice.New("")
	if err != nil {
		return err
	}

	account, err := ns.Generate(name)
	if err != nil {
		return err
	}

	fileName, err := ns.Save(accountPath, name)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", fileName, account)

	return nil
}
