package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/omochice/turn-chat/internal/chat"
	"github.com/omochice/turn-chat/internal/cli"
	"github.com/omochice/turn-chat/internal/console"
	"github.com/omochice/turn-chat/internal/logging"
	"github.com/omochice/turn-chat/internal/transport"
)

const stopGrace = 2 * time.Second

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var opts cli.Options

	cmd := &cobra.Command{
		Use:   "chatserve <port>",
		Short: "Wait for chat clients and talk to them one at a time",
		Long: "Listens on <port>, answers each client's handshake with your handle\n" +
			"and then alternates turns, the client speaking first. Type \\quit to\n" +
			"end the current conversation and wait for the next client.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := opts.Config(cmd)
			if err != nil {
				return err
			}
			log := logging.New(stderr, "chatserve", cfg.LogLevel)
			term := console.New(stdin, stdout)

			local, err := cli.Identity(cfg, term)
			if err != nil {
				return err
			}

			srv := transport.NewServer(cfg, net.JoinHostPort("", args[0]), converse(local, term, log), log)

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			errChan := make(chan error, 1)
			go func() {
				errChan <- srv.Start()
			}()

			select {
			case <-srv.Ready():
				term.Notice("Server is running.")
			case err := <-errChan:
				return err
			}

			select {
			case err := <-errChan:
				return err
			case sig := <-sigChan:
				log.Info().Stringer("signal", sig).Msg("shutting down")
				stopped := make(chan struct{})
				go func() {
					srv.Stop()
					close(stopped)
				}()
				// a session blocked on local input cannot be interrupted
				select {
				case <-stopped:
				case <-time.After(stopGrace):
				}
				return nil
			}
		},
	}

	cmd.SetIn(stdin)
	cmd.SetErr(stderr)
	opts.Bind(cmd)
	return cmd
}

// converse runs one responder session per accepted client.
func converse(local chat.Identity, term *console.Terminal, log zerolog.Logger) func(context.Context, chat.Conn) {
	return func(ctx context.Context, conn chat.Conn) {
		term.Notice("New connection created.")

		s, err := chat.AcceptHandshake(ctx, conn, local, chat.WithLogger(log))
		if err != nil {
			conn.Close()
			log.Error().Err(err).Str("peer", conn.RemoteAddr()).Msg("handshake failed")
			return
		}
		term.Notice(fmt.Sprintf("Chatting with %s.", s.Remote()))

		outcome, err := s.Run(ctx, term)
		if err != nil {
			log.Error().Err(err).Str("peer", conn.RemoteAddr()).Msg("session failed")
		} else {
			log.Info().Stringer("outcome", outcome).Msg("session closed")
		}
		term.Notice("Waiting for a new connection.")
	}
}
