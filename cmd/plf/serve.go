package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/population-loader/pkg/api"
	grpcapi "github.com/lemonberrylabs/population-loader/pkg/api/grpc"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the loader over HTTP and gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			port, _ := cmd.Flags().GetInt("port")
			grpcPort, _ := cmd.Flags().GetInt("grpc-port")
			host, _ := cmd.Flags().GetString("host")
			dir, _ := cmd.Flags().GetString("dir")

			addr := fmt.Sprintf("%s:%d", host, port)
			grpcAddr := fmt.Sprintf("%s:%d", host, grpcPort)
			log := a.logger

			server := api.New(api.Options{Dir: dir, Logger: log})

			grpcServer := grpcapi.New(grpcapi.Options{Dir: dir, Logger: log})
			go func() {
				log.Infof("gRPC server listening on %s", grpcAddr)
				if err := grpcServer.Serve(grpcAddr); err != nil {
					log.Fatalf("gRPC server error: %v", err)
				}
			}()

			// Graceful shutdown
			go func() {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				<-sigCh
				log.Info("Shutting down population loader...")
				grpcServer.GracefulStop()
				if err := server.Shutdown(); err != nil {
					log.Errorf("Error during shutdown: %v", err)
				}
			}()

			log.WithField("dir", dir).Infof("Population loader listening on %s", addr)
			return server.Listen(addr)
		},
	}
	cmd.Flags().Int("port", 8787, "HTTP server port (env PLF_PORT)")
	cmd.Flags().Int("grpc-port", 8788, "gRPC server port (env PLF_GRPC_PORT)")
	cmd.Flags().String("host", "0.0.0.0", "Bind address (env PLF_HOST)")
	cmd.Flags().String("dir", "", "Directory file patterns are resolved against (env PLF_DIR)")
	return cmd
}
