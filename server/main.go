package main

import (
	"crypto/tls"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/osakit/osarun"
	"github.com/osakit/osarun/osascript"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	host        string
	port        string
	configPath  string
	scriptsDir  string
	caCertFile  string
	svrCertFile string
	svrKeyFile  string
	logLevel    string
	buildTime   string
	commitHash  string
)

const scriptsDirName = `scripts`

func main() {
	pf := pflag.NewFlagSet(`osarun-server`, pflag.ExitOnError)
	pf.StringVarP(&host, "host", "h", "localhost", "Name of Host receiving requests.")
	pf.StringVarP(&port, "port", "p", "8080", "Port to Listen on.")
	pf.StringVarP(&configPath, "config", "c", "", "Path of Config File to Use, Overwriting Defaults.")
	pf.StringVar(&scriptsDir, "scripts", "", "Directory holding the script library.")
	pf.StringVar(&caCertFile, "cacert", "", "Filepath to Signing Certificate CA. Enables mutual TLS.")
	pf.StringVar(&svrCertFile, "cert", "", "Filepath to Server Certificate. Empty serves plain HTTP.")
	pf.StringVar(&svrKeyFile, "key", "", "Filepath to Server Key.")
	pf.StringVar(&logLevel, "loglevel", "info", "Log Level.")
	pf.Parse(os.Args[1:])

	l := osarun.ConfigureLogger(osarun.ConfigureLevel(logLevel), os.Stdout)
	L := l.With(zap.String(`process`, `osarun-server`))
	L.Info("Starting ...", zap.String(`Version`, buildTime), zap.String(`Commit`, commitHash))

	cwd, err := osarun.GetCWD()
	if err != nil {
		L.Fatal("error retrieving cwd", zap.Error(err))
	}

	runner := osascript.New()
	if configPath != "" {
		config, err := osarun.GetConfig(configPath)
		switch {
		case err != nil:
			L.Error("error retrieving config", zap.Error(err))
		default:
			if config.Interpreter != "" {
				runner.Path = config.Interpreter
			}
			runner.Language = config.Language
			runner.Timeout = config.Timeout()
			if config.ScriptsDir != "" && scriptsDir == "" {
				scriptsDir = config.ScriptsDir
			}
			ca, cert, key := config.CertFiles(cwd)
			if caCertFile == "" && osarun.FileExists(ca) {
				caCertFile = ca
			}
			if svrCertFile == "" && osarun.FileExists(cert) {
				svrCertFile = cert
			}
			if svrKeyFile == "" && osarun.FileExists(key) {
				svrKeyFile = key
			}
		}
	}
	if scriptsDir == "" {
		scriptsDir = filepath.Join(cwd, scriptsDirName)
	}
	if err := osarun.CreateDir(scriptsDir); err != nil {
		L.Fatal("could not create scripts directory", zap.String("directory", scriptsDir), zap.Error(err))
	}
	L.Info("scripts directory", zap.String("directory", scriptsDir))
	L.Info("interpreter", zap.String("path", runner.Path), zap.Duration("timeout", runner.Timeout))

	certOpt := tls.NoClientCert
	if caCertFile != "" {
		certOpt = tls.RequireAndVerifyClientCert
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	api := NewAPI(host, port, scriptsDir, caCertFile, certOpt, runner, L)
	api.Start(svrCertFile, svrKeyFile)

	<-sigChan

	api.Stop()
	L.Info("Stopped.")
}
