// Command echo runs a minimal TCP echo server on top of Bootstrap, as an
// illustration of wiring a transport, a pipeline, and a handler together.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	netty "github.com/summerhf/go-netty"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "echo",
		Short:         "Run a TCP echo server on top of go-netty's Bootstrap",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd())
	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Listen for connections and echo every message read back to its sender",
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			verbose, _ := cmd.Flags().GetBool("verbose")

			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}

			return serve(addr)
		},
	}
	cmd.Flags().String("addr", "tcp://127.0.0.1:9527", "listen address, as a tcp:// URL")
	cmd.Flags().Bool("verbose", false, "enable debug logging")
	return cmd
}

func serve(addr string) error {
	bs := netty.NewBootstrap(
		netty.WithChildInitializer(func(ch netty.Channel) {
			ch.Pipeline().AddLast("echo", &echoHandler{})
		}),
	)
	defer bs.Shutdown()

	listener := bs.Listen(addr)

	errCh := make(chan error, 1)
	listener.Async(func(err error) {
		if err != nil {
			errCh <- err
		}
	})

	log.Info().Str("addr", addr).Msg("echo server listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("echo: accept loop stopped: %w", err)
	case <-sigCh:
		log.Info().Msg("echo server shutting down")
		return listener.Close()
	}
}

// echoHandler writes every message it reads straight back out.
type echoHandler struct {
	netty.RemovableBase
}

func (h *echoHandler) HandleActive(ctx netty.HandlerContext) {
	log.Debug().Str("channel_id", ctx.Channel().ID()).Msg("channel active")
	ctx.FireChannelActive()
}

func (h *echoHandler) HandleRead(ctx netty.HandlerContext, msg netty.Message) {
	ctx.WriteAndFlush(msg, nil)
}

func (h *echoHandler) HandleException(ctx netty.HandlerContext, ex netty.Exception) {
	log.Warn().Str("channel_id", ctx.Channel().ID()).Err(ex.Unwrap()).Msg("echo handler error")
	_ = ctx.Close(nil)
}
