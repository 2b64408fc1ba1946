// Command mcp-session-demo runs a minimal MCP server over stdio,
// exposing a single "echo" tool, to exercise session/transport/mcptype
// end to end as a child process a real MCP client could spawn.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/metoro-io/mcp-session/examples/server"
	"github.com/metoro-io/mcp-session/mcptype"
	"github.com/metoro-io/mcp-session/transport/stdio"
)

func main() {
	srv := server.New(
		mcptype.Implementation{Name: "mcp-session-demo", Version: "0.1.0"},
		mcptype.ServerCapabilities{
			Tools: &mcptype.ListChangedCapability{ListChanged: true},
		},
		true,
	)

	srv.RegisterTool(mcptype.Tool{
		Name:        "echo",
		Description: "Echoes the provided text back as the tool result.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"text": map[string]interface{}{"type": "string"},
			},
			"required": []string{"text"},
		},
	}, func(ctx context.Context, args map[string]interface{}) (*mcptype.CallToolResult, error) {
		text, _ := args["text"].(string)
		return mcptype.NewCallToolResult(mcptype.NewTextContent(text)), nil
	})

	srv.OnError = func(err error) {
		fmt.Fprintln(os.Stderr, "mcp-session-demo:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tr := stdio.New(os.Stdin, os.Stdout)
	if err := srv.Connect(ctx, tr); err != nil {
		log.Fatalf("mcp-session-demo: connect: %v", err)
	}

	<-ctx.Done()
	srv.Close()
}
