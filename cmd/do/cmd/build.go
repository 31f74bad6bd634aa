package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
)

func BuildCmd() *cobra.Command {
	var (
		output string
		goos   string
		goarch string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the server binary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return buildServer(output, goos, goarch)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "bin/yaqa", "output path")
	cmd.Flags().StringVar(&goos, "os", "", "target GOOS (default: host)")
	cmd.Flags().StringVar(&goarch, "arch", "", "target GOARCH (default: host)")
	return cmd
}

func buildServer(output, goos, goarch string) error {
	err := os.MkdirAll(filepath.Dir(output), 0755)
	if err != nil {
		return err
	}

	fmt.Println("==> Building", output)

	build := exec.Command("go", "build", "-trimpath", "-ldflags", "-s -w", "-o", output, "./cmd/server")
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	build.Env = os.Environ()
	// modernc sqlite is pure Go, so cross builds work without cgo
	build.Env = append(build.Env, "CGO_ENABLED=0")
	if goos != "" {
		build.Env = append(build.Env, "GOOS="+goos)
	}
	if goarch != "" {
		build.Env = append(build.Env, "GOARCH="+goarch)
	}

	err = build.Run()
	if err != nil {
		return fmt.Errorf("go build failed: %w", err)
	}

	fmt.Println("==> Done")
	return nil
}
