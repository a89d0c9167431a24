package cmd

import (
	"github.com/spf13/cobra"
)

func Root() *cobra.Command {
	root := &cobra.Command{
		Use:           "livechat",
		Short:         "Real-time chat delivery",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := &cobra.Command{
		Use:   "server",
		Short: "Run the chat server",
		RunE: func(c *cobra.Command, _ []string) error {
			return Server(c.Context(), c)
		},
	}
	server.Flags().String("env-file", ".env", "dotenv file loaded before reading the environment")

	client := &cobra.Command{
		Use:   "client",
		Short: "Open an interactive chat session",
		RunE: func(c *cobra.Command, _ []string) error {
			return Client(c.Context(), c)
		},
	}
	client.Flags().String("addr", "localhost:8080", "server address")
	client.Flags().String("identity-header", "X-User-ID", "header carrying the user identity")
	client.Flags().String("user", "", "user identity, prompted when empty")

	root.AddCommand(server, client)

	return root
}
