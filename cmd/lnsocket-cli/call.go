package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gosuda/lnsocket/commando"
)

var callCmd = &cobra.Command{
	Use:   "call <method> [param]...",
	Short: "Dial, perform init, issue one Commando RPC, print the JSON result",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCall,
}

func runCall(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.sock.Close()

	method := args[0]
	params := make([]any, 0, len(args)-1)
	for _, raw := range args[1:] {
		params = append(params, parseParam(raw))
	}

	result, err := s.client.CallWithOptions(ctx, method, params, commando.CallOptions{Timeout: flagTimeout})
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}

	fmt.Println(string(result))
	return nil
}

// parseParam lets a caller pass numbers, booleans, and JSON objects/arrays
// as positional params without quoting, falling back to a plain string for
// anything that isn't valid JSON on its own.
func parseParam(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}
