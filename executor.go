package osarun

import "context"

// Runner executes automation scripts and returns their captured output.
type Runner interface {
	Run(ctx context.Context, script string) (Result, error)
	RunFile(ctx context.Context, path string) (Result, error)
}
