package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/linkbridge/linkbridge/cmd"
	"github.com/linkbridge/linkbridge/internal/app"
	customerrors "github.com/linkbridge/linkbridge/internal/errors"
)

// commandTimeout bounds one CLI invocation. It covers a full provider
// resolution with both corrections.
const commandTimeout = 60 * time.Second

func openApp() (*app.App, context.Context, context.CancelFunc, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	a, err := app.New(ctx, cmd.Cfg, cmd.Logger)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return a, ctx, cancel, nil
}

// describe renders a BridgeError with the same fields the HTTP API returns.
func describe(err error) error {
	be, ok := customerrors.As(err)
	if !ok {
		return err
	}
	msg := fmt.Sprintf("%s (%s)", be.Message, be.Kind)
	if be.Detail != "" {
		msg += "\n  detail: " + be.Detail
	}
	if be.RequestURL != "" {
		msg += "\n  request: " + be.RequestURL
	}
	if be.RawBody != "" {
		msg += "\n  response: " + be.RawBody
	}
	return errors.New(msg)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
