package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var queryURL string

// queryCmd sends a raw JSON-RPC call to a running daemon.
var queryCmd = &cobra.Command{
	Use:   "query <method> [params-json]",
	Short: "Call a JSON-RPC method on a running daemon",
	Long: `Send one JSON-RPC request to a running cennzxd and print the response.

Examples:
    cennzxd query cennzx_ping
    cennzxd query cennzx_poolState '{"trade_asset": 16002}'
    cennzxd query cennzx_buyPrice '{"asset_to_buy": 16002, "amount": 100, "asset_to_pay": 16001}'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&queryURL, "url", "http://127.0.0.1:9944", "daemon RPC endpoint")
}

func runQuery(cmd *cobra.Command, args []string) error {
	request := map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  args[0],
		"id":      1,
	}
	if len(args) == 2 {
		var params json.RawMessage
		if err := json.Unmarshal([]byte(args[1]), &params); err != nil {
			return fmt.Errorf("params must be valid JSON: %w", err)
		}
		request["params"] = params
	}

	body, err := json.Marshal(request)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(queryURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	// Pretty-print when possible, else pass through.
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), string(raw))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
	return nil
}
