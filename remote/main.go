package main

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/osakit/osarun"
	"github.com/spf13/pflag"
)

var (
	serverURL  string
	certFile   string
	keyFile    string
	caCertFile string
	put        bool
)

func main() {
	pf := pflag.NewFlagSet(`osarun-remote`, pflag.ExitOnError)
	pf.StringVar(&serverURL, "url", "", "Base URL of the osarun server.")
	pf.StringVar(&caCertFile, "cacert", "", "Filepath to Signing Certificate CA.")
	pf.StringVar(&certFile, "cert", "", "Filepath to Client Certificate.")
	pf.StringVar(&keyFile, "key", "", "Filepath to Client Key.")
	pf.BoolVar(&put, "put", false, "Upload the given script files into the server library instead of running script text.")
	pf.Parse(os.Args[1:])
	args := pf.Args()

	if serverURL == "" {
		fmt.Fprintln(os.Stderr, "server url not provided")
		os.Exit(1)
	}

	client := http.Client{
		Timeout: time.Minute * 1,
	}
	if caCertFile != "" {
		client.Transport = &http.Transport{
			TLSClientConfig: getTLSConfig(certFile, keyFile, caCertFile),
		}
	}

	switch {
	case put:
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "no script files to upload")
			os.Exit(1)
		}
		os.Exit(uploadScripts(&client, serverURL, args, os.Stdout, os.Stderr))
	default:
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, `usage: osarun-remote --url <server> "<script text>"`)
			os.Exit(1)
		}
		os.Exit(runRemote(&client, serverURL, args[0], os.Stdout, os.Stderr))
	}
}

func runRemote(client *http.Client, base, script string, stdout, stderr io.Writer) int {
	base = strings.TrimSuffix(base, `/`)
	body, err := json.Marshal(map[string]string{`script`: script})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	resp, err := client.Post(base+`/run`, `application/json`, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer resp.Body.Close()
	raw, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(stderr, "Error: server returned %s: %s\n", resp.Status, strings.TrimSpace(string(raw)))
		return 1
	}
	var res osarun.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		fmt.Fprintf(stderr, "Error: decoding server response: %v\n", err)
		return 1
	}
	switch {
	case res.ExitCode != 0:
		if res.Stdout != "" {
			fmt.Fprintln(stdout, res.Stdout)
		}
		fmt.Fprintf(stderr, "Error: %s\n", res.Stderr)
		return res.ExitCode
	case res.Stdout != "":
		fmt.Fprintln(stdout, res.Stdout)
	}
	return 0
}

func uploadScripts(client *http.Client, base string, files []string, stdout, stderr io.Writer) int {
	base = strings.TrimSuffix(base, `/`)
	exitCode := 0
	for _, file := range files {
		b, err := ioutil.ReadFile(file)
		if err != nil {
			fmt.Fprintf(stderr, "Error reading file %q: %v\n", file, err)
			exitCode = 1
			continue
		}
		_, name := filepath.Split(file)
		resp, err := client.Post(base+`/scripts/`+name, `text/plain`, bytes.NewReader(b))
		if err != nil {
			fmt.Fprintf(stderr, "Error sending request for file %q: %v\n", file, err)
			exitCode = 1
			continue
		}
		raw, err := ioutil.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			fmt.Fprintf(stderr, "Error reading response for file %q: %v\n", file, err)
			exitCode = 1
			continue
		}
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(stderr, "Error uploading file %q: server returned %s: %s\n", file, resp.Status, strings.TrimSpace(string(raw)))
			exitCode = 1
			continue
		}
		fmt.Fprintf(stdout, "%s: %s", name, raw)
	}
	return exitCode
}

func getTLSConfig(clientCert, clientKey, caCertFile string) *tls.Config {
	var cert tls.Certificate
	var err error
	if clientCert != "" && clientKey != "" {
		cert, err = tls.LoadX509KeyPair(clientCert, clientKey)
		if err != nil {
			log.Fatalf("Error creating x509 keypair from client cert file %q and client key file %q: %v\n", clientCert, clientKey, err)
		}
	}
	caCert, err := ioutil.ReadFile(caCertFile)
	if err != nil {
		log.Fatalf("Error opening cert file %q: %v\n", caCertFile, err)
	}
	caCertPool := x509.NewCertPool()
	caCertPool.AppendCertsFromPEM(caCert)
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      caCertPool,
	}
}
