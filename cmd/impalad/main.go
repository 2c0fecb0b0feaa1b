// Copyright 2024 The Impala-Go Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// impalad is the coordinator/backend daemon: it accepts client SQL
// requests, drives them through planning and distributed execution, hosts
// remote plan fragments for peer coordinators, and subscribes to the
// cluster membership and catalog topics.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/goimpala/impala/pkg/backend"
	"github.com/goimpala/impala/pkg/base"
	"github.com/goimpala/impala/pkg/coordinator"
	"github.com/goimpala/impala/pkg/frontend"
	"github.com/goimpala/impala/pkg/impalapb"
	"github.com/goimpala/impala/pkg/server"
	"github.com/goimpala/impala/pkg/statestore"
	"github.com/goimpala/impala/pkg/util/log"
	"github.com/goimpala/impala/pkg/util/stop"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg := base.DefaultConfig()
	var verbosity int

	cmd := &cobra.Command{
		Use:           "impalad",
		Short:         "impalad runs the query engine coordinator and backend services",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.SetVerbosity(verbosity)
			return runImpalad(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	// Accept both spellings, e.g. --be-port and --be_port.
	f.SetNormalizeFunc(func(fs *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "-", "_"))
	})
	f.StringVar(&cfg.Hostname, "hostname", cfg.Hostname, "hostname advertised to clients and peers")
	f.IntVar(&cfg.BeeswaxPort, "beeswax_port", cfg.BeeswaxPort, "port for the Beeswax client protocol")
	f.IntVar(&cfg.HS2Port, "hs2_port", cfg.HS2Port, "port for the HiveServer2 client protocol")
	f.IntVar(&cfg.BackendPort, "be_port", cfg.BackendPort, "port for the internal backend service")
	f.IntVar(&cfg.FeServiceThreads, "fe_service_threads", cfg.FeServiceThreads,
		"concurrency of the client-facing services")
	f.IntVar(&cfg.BeServiceThreads, "be_service_threads", cfg.BeServiceThreads,
		"concurrency of the backend service")
	f.IntVar(&cfg.CancellationThreadPoolSize, "cancellation_thread_pool_size",
		cfg.CancellationThreadPoolSize, "workers draining the cancellation queue")
	f.IntVar(&cfg.IdleSessionTimeout, "idle_session_timeout", cfg.IdleSessionTimeout,
		"seconds of inactivity after which a session expires; 0 disables")
	f.IntVar(&cfg.IdleQueryTimeout, "idle_query_timeout", cfg.IdleQueryTimeout,
		"seconds of inactivity after which a query is cancelled; 0 disables")
	f.IntVar(&cfg.QueryLogSize, "query_log_size", cfg.QueryLogSize,
		"completed queries kept in memory; -1 unbounded, 0 disables")
	f.BoolVar(&cfg.LogQueryToFile, "log_query_to_file", cfg.LogQueryToFile,
		"write completed query profiles to the profile log")
	f.IntVar(&cfg.MaxResultCacheSize, "max_result_cache_size", cfg.MaxResultCacheSize,
		"maximum rows cached per query for fetch restarts")
	f.StringVar(&cfg.ProfileLogDir, "profile_log_dir", cfg.ProfileLogDir,
		"directory for the on-disk profile log; empty disables")
	f.StringVar(&cfg.AuditEventLogDir, "audit_event_log_dir", cfg.AuditEventLogDir,
		"directory for the audit event log; empty disables")
	f.IntVar(&cfg.MaxProfileLogFileSize, "max_profile_log_file_size", cfg.MaxProfileLogFileSize,
		"profile log entries per file before rotation")
	f.IntVar(&cfg.MaxAuditEventLogFileSize, "max_audit_event_log_file_size",
		cfg.MaxAuditEventLogFileSize, "audit log entries per file before rotation")
	f.BoolVar(&cfg.AbortOnFailedAuditEvent, "abort_on_failed_audit_event",
		cfg.AbortOnFailedAuditEvent, "exit if an audit event cannot be recorded")
	f.StringVar(&cfg.SSLServerCertificate, "ssl_server_certificate", cfg.SSLServerCertificate,
		"server TLS certificate; enables TLS on the backend service")
	f.StringVar(&cfg.SSLPrivateKey, "ssl_private_key", cfg.SSLPrivateKey,
		"private key for ssl_server_certificate")
	f.StringVar(&cfg.SSLClientCACertificate, "ssl_client_ca_certificate",
		cfg.SSLClientCACertificate, "CA certificate used to verify client certificates")
	f.StringVar(&cfg.AuthorizedProxyUserConfig, "authorized_proxy_user_config",
		cfg.AuthorizedProxyUserConfig, "proxy delegation map, e.g. 'hue=user1,user2;svc=*'")
	f.StringVar(&cfg.DefaultQueryOptions, "default_query_options", cfg.DefaultQueryOptions,
		"default query options, e.g. 'mem_limit=0,num_nodes=0'")
	f.IntVar(&verbosity, "v", 0, "log verbosity level")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "impalad:", err)
		os.Exit(1)
	}
}

func runImpalad(ctx context.Context, cfg base.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ambient := log.AmbientContext{}
	ambient.AddLogTag("host", cfg.Hostname)
	ctx = ambient.AnnotateCtx(ctx)

	stopper := stop.NewStopper()
	defer stopper.Stop(ctx)

	clientCache := coordinator.NewClientCache(ambient)
	fe := frontend.New(impalapb.MakeNetworkAddress(cfg.Hostname, int32(cfg.BackendPort)))
	subscriber := statestore.NewSubscriber(ambient)

	srv, err := server.NewServer(server.ServerConfig{
		AmbientContext: ambient,
		Cfg:            cfg,
		Frontend:       fe,
		NewCoordinator: func(
			ambient log.AmbientContext, queryCtx *impalapb.QueryCtx, request *impalapb.ExecRequest,
		) server.QueryCoordinator {
			return coordinator.New(ambient, queryCtx, request, clientCache)
		},
		ClientCache:     clientCache,
		MetricsRegistry: prometheus.DefaultRegisterer,
		WaitForCatalog:  true,
	}, stopper)
	if err != nil {
		return err
	}
	srv.RegisterTopics(subscriber)
	srv.Start(ctx)

	be := backend.NewServer(backend.ServerConfig{
		AmbientContext: ambient,
		StreamMgr:      noopStreamMgr{},
		Reports:        srv,
		Subscriber:     subscriber,
	}, stopper)

	var serverOpts []grpc.ServerOption
	if cfg.SSLServerCertificate != "" {
		creds, err := credentials.NewServerTLSFromFile(cfg.SSLServerCertificate, cfg.SSLPrivateKey)
		if err != nil {
			return err
		}
		serverOpts = append(serverOpts, grpc.Creds(creds))
	}
	grpcServer := grpc.NewServer(serverOpts...)
	impalapb.RegisterInternalServiceServer(grpcServer, be)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.BackendPort))
	if err != nil {
		return err
	}
	stopper.RunWorker(ctx, func(ctx context.Context) {
		if err := grpcServer.Serve(lis); err != nil {
			log.Errorf(ctx, "backend service stopped: %v", err)
		}
	})
	stopper.RunWorker(ctx, func(ctx context.Context) {
		<-stopper.ShouldQuiesce()
		grpcServer.GracefulStop()
	})
	log.Infof(ctx, "backend service listening on %s", lis.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Infof(ctx, "received %s, shutting down", sig)
	case <-stopper.ShouldQuiesce():
	}
	return nil
}

// noopStreamMgr drops transmitted row batches; inter-fragment transport is
// provided by the execution engine when one is embedded.
type noopStreamMgr struct{}

func (noopStreamMgr) AddData(
	dest impalapb.UniqueID, destNodeID, senderID int32, batch *impalapb.RowBatch,
) error {
	return nil
}

func (noopStreamMgr) CloseSender(dest impalapb.UniqueID, destNodeID, senderID int32) error {
	return nil
}
