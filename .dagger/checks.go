package main

import (
	"context"
	"errors"
	"fmt"

	"dagger/parley/internal/dagger"
)

const golangciLintVersion = "v2.8.0"

// lintContainer installs golangci-lint on top of goContainer so cgo and the
// sqlite headers are available to the type checker.
func (p *Parley) lintContainer() *dagger.Container {
	return p.goContainer().
		WithExec([]string{
			"go", "install",
			fmt.Sprintf("github.com/golangci/golangci-lint/v2/cmd/golangci-lint@%s", golangciLintVersion),
		})
}

// CheckLint runs golangci-lint with .golangci.yml.
//
// +check
func (p *Parley) CheckLint(ctx context.Context) (string, error) {
	return check(ctx, "golangci-lint reported issues",
		p.lintContainer().WithExec([]string{"golangci-lint", "run", "./..."}))
}

// FixLint applies golangci-lint's automatic fixes and returns the source.
func (p *Parley) FixLint() *dagger.Directory {
	return p.lintContainer().
		WithExec([]string{"golangci-lint", "run", "--fix", "./..."}, dagger.ContainerWithExecOpts{Expect: dagger.ReturnTypeAny}).
		Directory("/src")
}

// CheckGoModTidy fails when "go mod tidy" would change go.mod or go.sum.
//
// +check
func (p *Parley) CheckGoModTidy(ctx context.Context) (string, error) {
	return check(ctx, "go.mod or go.sum are not tidy: run 'go mod tidy' and commit the changes",
		p.goContainer().
			WithExec([]string{"cp", "go.mod", "go.mod.HEAD"}).
			WithExec([]string{"cp", "go.sum", "go.sum.HEAD"}).
			WithExec([]string{"go", "mod", "tidy"}).
			WithExec([]string{"sh", "-c", "diff -u go.mod.HEAD go.mod && diff -u go.sum.HEAD go.sum"}))
}

// CheckLibSQLBuild compiles every package with the libsql tag, which swaps
// in the libSQL history store and vector driver builds.
//
// +check
func (p *Parley) CheckLibSQLBuild(ctx context.Context) (string, error) {
	return check(ctx, "libsql build failed",
		p.goContainer().WithExec([]string{"go", "build", "-tags", "libsql", "./..."}))
}

func check(ctx context.Context, failure string, ctr *dagger.Container) (string, error) {
	out, err := ctr.Stdout(ctx)

	var e *dagger.ExecError
	if errors.As(err, &e) {
		return "", fmt.Errorf("%s\n\n%s%s", failure, e.Stdout, e.Stderr)
	} else if err != nil {
		return "", fmt.Errorf("unexpected error: %w", err)
	}
	return out, nil
}
