package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var nodeURL string

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Print the balances held by a running node",
	RunE:  balancesRun,
}

func init() {
	rootCmd.AddCommand(balancesCmd)
	balancesCmd.Flags().StringVarP(&nodeURL, "url", "u", "http://localhost:8080", "Url of the node.")
}

func balancesRun(cmd *cobra.Command, args []string) error {
	client := http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(nodeURL + "/v1/balances/list")
	if err != nil {
		return fmt.Errorf("query node: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("query node: status %s", resp.Status)
	}

	var bals struct {
		LastBlockID string `json:"last_block_id"`
		Balances    []struct {
			Name    string `json:"name"`
			Balance uint64 `json:"balance"`
		} `json:"balances"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&bals); err != nil {
		return fmt.Errorf("decode balances: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "last block: %s\n", bals.LastBlockID)

	if len(bals.Balances) == 0 {
		fmt.Fprintln(w, "<Nobody has any money>")
		return nil
	}

	for _, bal := range bals.Balances {
		fmt.Fprintf(w, "%s: %d units\n", bal.Name, bal.Balance)
	}

	return nil
}
