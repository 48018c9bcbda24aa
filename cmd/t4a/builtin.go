package main

import (
	"context"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"tools4ai/internal/actions"
)

// now is replaced in tests.
var now = time.Now

// builtinProviders are the actions compiled into the binary.
func builtinProviders() []actions.Provider {
	return []actions.Provider{
		actions.Static(actions.NewMethod("getCurrentTime",
			"get the current date and time in a timezone such as Asia/Kolkata",
			currentTime, actions.String("timezone"),
		).WithGroup("utility", "general purpose helpers")),

		actions.Static(actions.NewMethod("writeFile",
			"write text content to a file on the local disk",
			writeFile, actions.String("path"), actions.String("content"),
		).WithRisk(actions.RiskHigh).WithGroup("files", "local file access")),
	}
}

func currentTime(ctx context.Context, args []any) (any, error) {
	tz, _ := args[0].(string)
	loc := time.UTC
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("unknown timezone %q: %w", tz, err)
		}
		loc = l
	}
	return now().In(loc).Format(time.RFC1123), nil
}

func writeFile(ctx context.Context, args []any) (any, error) {
	path, _ := args[0].(string)
	content, _ := args[1].(string)
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return nil, err
	}
	return fmt.Sprintf("wrote %d bytes to %s", len(content), path), nil
}
