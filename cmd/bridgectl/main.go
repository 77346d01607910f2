// Command bridgectl is a small control client for the bridge.
//
// Usage:
//
//	bridgectl status
//	bridgectl send <command> ['{"params":...}']
//	bridgectl realtime <address> <value>
//
// Connection settings come from the BRIDGE_* environment variables.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"daw-bridge/client"
	"daw-bridge/config"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.FromEnv()
	if err != nil {
		fatal(err)
	}
	c := client.NewClient(cfg)
	defer c.Close()

	switch os.Args[1] {
	case "status":
		// Force one connect attempt so the status reflects reachability.
		c.SendCommand("get_session_info", nil)
		printJSON(c.Status())
	case "send":
		if len(os.Args) < 3 {
			usage()
		}
		params := map[string]any{}
		if len(os.Args) > 3 {
			if err := json.Unmarshal([]byte(os.Args[3]), &params); err != nil {
				fatal(fmt.Errorf("bad params: %w", err))
			}
		}
		result, err := c.SendCommand(os.Args[2], params)
		if err != nil {
			fatal(err)
		}
		printJSON(result)
	case "realtime":
		if len(os.Args) < 4 {
			usage()
		}
		value, err := strconv.ParseFloat(os.Args[3], 32)
		if err != nil {
			fatal(fmt.Errorf("bad value: %w", err))
		}
		if err := c.SendRealtime(os.Args[2], float32(value)); err != nil {
			fatal(err)
		}
	default:
		usage()
	}
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(out))
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "bridgectl:", err)
	os.Exit(1)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: bridgectl status | send <command> [params-json] | realtime <address> <value>")
	os.Exit(2)
}
