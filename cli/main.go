package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/osakit/osarun"
	"github.com/osakit/osarun/osascript"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	buildTime  string
	commitHash string
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var (
		language    string
		scriptFile  string
		interpreter string
		debug       bool
	)
	pf := pflag.NewFlagSet(`osarun`, pflag.ContinueOnError)
	pf.SetOutput(stderr)
	pf.StringVarP(&language, `language`, `l`, "", "Language passed to the interpreter (AppleScript or JavaScript).")
	pf.StringVarP(&scriptFile, `file`, `f`, "", "Run the script stored at the given path instead of inline script text.")
	pf.StringVar(&interpreter, `interpreter`, "", "Alternate interpreter path, overriding PATH resolution.")
	pf.BoolVar(&debug, `debug`, false, "Enable debug logging on stderr.")
	if err := pf.Parse(args); err != nil {
		return 1
	}

	script := ""
	switch rest := pf.Args(); {
	case scriptFile != "":
	case len(rest) > 0:
		script = rest[0]
	default:
		fmt.Fprintln(stderr, `usage: osarun [flags] "<script text>"`)
		pf.PrintDefaults()
		return 1
	}

	level := osarun.ConfigureLevel(`error`)
	if debug {
		level = osarun.ConfigureLevel(`debug`)
	}
	l := osarun.ConfigureLogger(level, zapcore.AddSync(stderr))
	L := l.With(zap.String(`process`, `osarun`))
	L.Debug("Starting ...", zap.String(`Version`, buildTime), zap.String(`Commit`, commitHash))

	osa := osascript.New()
	if interpreter != "" {
		osa.Path = interpreter
	}
	osa.Language = language
	L.Debug("resolved interpreter", zap.String(`path`, osa.Path))

	var res osarun.Result
	var err error
	switch {
	case scriptFile != "":
		if !osarun.FileExists(scriptFile) {
			fmt.Fprintf(stderr, "Error: script file %q does not exist\n", scriptFile)
			return 1
		}
		res, err = osa.RunFile(context.Background(), scriptFile)
	default:
		res, err = osa.Run(context.Background(), script)
	}

	switch {
	case err != nil:
		var timeoutErr *osarun.TimeoutError
		if errors.As(err, &timeoutErr) {
			L.Debug("execution timed out", zap.Duration(`timeout`, timeoutErr.Timeout))
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
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
