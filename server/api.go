package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"io/ioutil"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/osakit/osarun"
	"go.uber.org/zap"
)

// API serves script execution and the script library over HTTP.
type API struct {
	httpSrv    http.Server
	wg         sync.WaitGroup
	logger     *zap.Logger
	runner     osarun.Runner
	scriptsDir string
}

// NewAPI returns a new API.
func NewAPI(host, port, scriptsDir, caCertFile string, certOpt tls.ClientAuthType, runner osarun.Runner, L *zap.Logger) *API {
	A := &API{
		wg:         sync.WaitGroup{},
		logger:     L.With(zap.String(`process`, `osarun API`)),
		runner:     runner,
		scriptsDir: scriptsDir,
	}
	A.makeHTTPSrv(host, port, caCertFile, certOpt)
	return A
}

// Start starts the API. An empty certFile serves plain HTTP.
func (a *API) Start(certFile, keyFile string) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.logger.Info("Starting ... Listening on " + a.httpSrv.Addr)
		var err error
		switch {
		case certFile != "":
			err = a.httpSrv.ListenAndServeTLS(certFile, keyFile)
		default:
			err = a.httpSrv.ListenAndServe()
		}
		if err != nil && !strings.Contains(err.Error(), `Server closed`) {
			a.logger.Fatal("http server encountered an error", zap.Error(err))
		}
		a.logger.Info("HTTP Server Stopped.")
	}()
}

// Stop stops the API.
func (a *API) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	err := a.httpSrv.Shutdown(ctx)
	if err != nil {
		a.logger.Error("error shutting down", zap.Error(err))
	}
	a.logger.Info("Stopping ...")
	<-ctx.Done()
	a.wg.Wait()
	a.logger.Info("All Processes Stopped.")
}

func (a *API) makeHTTPSrv(host, port, caCertFile string, certOpt tls.ClientAuthType) {
	r := mux.NewRouter()
	r.HandleFunc(`/`, a.handleStatus)
	r.HandleFunc(`/run`, a.handleRun)
	r.HandleFunc(`/scripts`, a.handleListScripts)
	r.HandleFunc(`/scripts/{name}/run`, a.handleRunScript)
	r.HandleFunc(`/scripts/{name}`, a.handleUploadScript)
	a.httpSrv = http.Server{
		Handler:      r,
		Addr:         `:` + port,
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  30 * time.Second,
		TLSConfig:    getTLSConfig(host, caCertFile, certOpt),
	}
}

func getTLSConfig(host, caCertFile string, certOpt tls.ClientAuthType) *tls.Config {
	var caCertPool *x509.CertPool
	if certOpt > tls.RequestClientCert {
		caCert, err := ioutil.ReadFile(caCertFile)
		if err != nil {
			log.Fatal("Error opening cert file ", caCertFile, ", error ", err)
		}
		caCertPool = x509.NewCertPool()
		caCertPool.AppendCertsFromPEM(caCert)
	}

	return &tls.Config{
		ServerName: host,
		ClientAuth: certOpt,
		ClientCAs:  caCertPool,
		MinVersion: tls.VersionTLS12, // TLS versions below 1.2 are considered insecure - see https://www.rfc-editor.org/rfc/rfc7525.txt for details
	}
}
