package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/aybouzaglou/AutotaskMCP/internal/autotask"
	"github.com/aybouzaglou/AutotaskMCP/internal/gateway"
	"github.com/aybouzaglou/AutotaskMCP/internal/metadata"
)

var rootCmd = &cobra.Command{
	Use:     "autotask-mcp",
	Short:   "autotask-mcp - MCP server for the Autotask PSA platform",
	Long:    `An MCP server exposing Autotask PSA ticket, company, contact, and time entry operations as tools for AI assistant hosts.`,
	Version: metadata.Version,
}

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the Autotask tool gateway over MCP stdio",
		Long:  "Start the MCP server on stdin/stdout. Credentials are read once from AUTOTASK_USERNAME, AUTOTASK_SECRET, AUTOTASK_INTEGRATION_CODE, and AUTOTASK_API_URL.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			// Try to load environment variables from a .env file. Ignores the
			// error if .env doesn't exist as we will read the environment
			// variables directly.
			_ = godotenv.Load()

			creds, err := autotask.CredentialsFromEnv()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				fmt.Fprintln(os.Stderr, "Please set the following environment variables:")
				fmt.Fprintln(os.Stderr, "  - AUTOTASK_USERNAME")
				fmt.Fprintln(os.Stderr, "  - AUTOTASK_SECRET")
				fmt.Fprintln(os.Stderr, "  - AUTOTASK_INTEGRATION_CODE")
				fmt.Fprintln(os.Stderr, "  - AUTOTASK_API_URL (optional)")
				os.Exit(1)
			}

			timeout, _ := cmd.Flags().GetDuration("timeout")
			verbose, _ := cmd.Flags().GetBool("verbose")

			// stdout carries the MCP wire protocol, so all logging goes to
			// stderr.
			logger := log.New(os.Stderr, "autotask-mcp ", log.LstdFlags)

			clientOpts := []autotask.Option{autotask.WithTimeout(timeout)}
			gatewayOpts := []gateway.Option{}
			if verbose {
				clientOpts = append(clientOpts, autotask.WithLogger(logger))
				gatewayOpts = append(gatewayOpts, gateway.WithLogger(logger))
			}

			client := autotask.NewClient(creds, clientOpts...)
			gw := gateway.New(client, gatewayOpts...)

			server := mcp.NewServer(&mcp.Implementation{
				Name:    metadata.Name,
				Version: metadata.Version,
			}, nil)
			gw.Register(server)

			if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
				fmt.Fprintf(os.Stderr, "Error: server stopped: %v\n", err)
				os.Exit(1)
			}
		},
	}
	cmd.Flags().Duration("timeout", autotask.DefaultTimeout, "Timeout for each outbound Autotask API call")
	cmd.Flags().Bool("verbose", false, "Log outbound Autotask requests to stderr (never logs credentials or bodies)")
	return cmd
}

func init() {
	rootCmd.AddCommand(NewServeCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
