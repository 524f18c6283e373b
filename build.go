//go:build ignore

// build.go - Olist Analytics build script
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: all, pipeline, dashboard, test, clean

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const module = "olistcli"

var (
	distDir = "dist"

	// key = directory under cmd/, value = output binary name
	executables = map[string]string{
		"pipeline":  "olist-pipeline",
		"dashboard": "olist-dashboard",
	}

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	start := time.Now()
	var err error

	switch *target {
	case "all":
		for _, name := range []string{"pipeline", "dashboard"} {
			if err = buildExecutable(name, *verbose); err != nil {
				break
			}
		}
	case "pipeline", "dashboard":
		err = buildExecutable(*target, *verbose)
	case "test":
		err = runTests(*verbose)
	case "clean":
		err = os.RemoveAll(distDir)
	default:
		err = fmt.Errorf("unknown target %q", *target)
	}

	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("%s finished in %s", *target, time.Since(start).Round(time.Millisecond)))
}

func printInfo(msg string)    { fmt.Printf("%s[INFO]%s %s\n", colorCyan, colorReset, msg) }
func printSuccess(msg string) { fmt.Printf("%s[OK]%s %s\n", colorGreen, colorReset, msg) }
func printError(msg string)   { fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg) }
func printWarning(msg string) { fmt.Printf("%s[WARN]%s %s\n", colorYellow, colorReset, msg) }

func gitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		printWarning("git commit unavailable, stamping 'unknown'")
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func buildExecutable(name string, verbose bool) error {
	out := executables[name]
	if runtime.GOOS == "windows" {
		out += ".exe"
	}
	if err := os.MkdirAll(distDir, 0755); err != nil {
		return err
	}

	ldflags := fmt.Sprintf("-s -w -X %s/pkg/contracts.BuildTime=%s -X %s/pkg/contracts.GitCommit=%s",
		module, time.Now().UTC().Format(time.RFC3339), module, gitCommit())

	args := []string{"build", "-ldflags", ldflags, "-o", filepath.Join(distDir, out)}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./cmd/"+name)

	printInfo(fmt.Sprintf("Building %s", out))
	return run(verbose, "go", args...)
}

func runTests(verbose bool) error {
	args := []string{"test", "-race", "./..."}
	if verbose {
		args = append(args, "-v")
	}
	return run(verbose, "go", args...)
}

func run(verbose bool, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stderr = os.Stderr
	if verbose {
		cmd.Stdout = os.Stdout
		printInfo(name + " " + strings.Join(args, " "))
	}
	return cmd.Run()
}
