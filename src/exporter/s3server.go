package exporter

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/fhoech/allura2wpxml/src/locals3"
	"github.com/fhoech/allura2wpxml/src/logging"
	"github.com/spf13/cobra"
)

func init() {
	var listen string

	s3Command := &cobra.Command{
		Use:   "s3-server [folder]",
		Short: "Serve a local folder as a minimal S3 endpoint",
		Long: `Serves path-style S3 GET and PUT of single objects from a local folder,
so that s3:// input and output can be tried without a real bucket.
Point --s3-endpoint at it and pass --s3-path-style.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			defer logging.LogPanics(nil)

			dir := "./tmp/s3"
			if len(args) > 0 {
				dir = args[0]
			}

			server := http.Server{
				Addr:    listen,
				Handler: &locals3.Server{Dir: dir, Logger: *logging.GlobalLogger()},
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			go func() {
				<-ctx.Done()
				logging.Info().Msg("Shutting down the S3 server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				server.Shutdown(shutdownCtx)
			}()

			logging.Info().Str("addr", listen).Str("dir", dir).Msg("Serving local S3")
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				logging.Error().Err(err).Msg("S3 server shut down unexpectedly")
				os.Exit(1)
			}
		},
	}
	s3Command.Flags().StringVar(&listen, "listen", "localhost:9000", "address to listen on")

	ExportCommand.AddCommand(s3Command)
}
