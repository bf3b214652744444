package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/omochice/turn-chat/internal/chat"
	"github.com/omochice/turn-chat/internal/cli"
	"github.com/omochice/turn-chat/internal/console"
	"github.com/omochice/turn-chat/internal/logging"
	"github.com/omochice/turn-chat/internal/transport"
)

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var opts cli.Options

	cmd := &cobra.Command{
		Use:   "chatclient <host> <port>",
		Short: "Chat with a peer, taking turns",
		Long: "Connects to a chat peer, exchanges handles and then alternates:\n" +
			"you send a line, the peer answers. Type \\quit to leave.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := opts.Config(cmd)
			if err != nil {
				return err
			}
			log := logging.New(stderr, "chatclient", cfg.LogLevel)
			term := console.New(stdin, stdout)

			local, err := cli.Identity(cfg, term)
			if err != nil {
				return err
			}

			ctx := context.Background()
			conn, err := transport.Dial(ctx, cfg, args[0], args[1])
			if err != nil {
				return err
			}
			log.Info().Str("peer", conn.RemoteAddr()).Str("transport", cfg.Transport).Msg("connected")

			s, err := chat.Handshake(ctx, conn, local, chat.WithLogger(log))
			if err != nil {
				conn.Close()
				return err
			}

			outcome, err := s.Run(ctx, term)
			if err != nil {
				return err
			}
			log.Info().Stringer("outcome", outcome).Msg("session closed")
			return nil
		},
	}

	cmd.SetIn(stdin)
	cmd.SetErr(stderr)
	opts.Bind(cmd)
	return cmd
}
