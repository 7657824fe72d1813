package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// runSSH hands the terminal to the system ssh binary - replaced in tests.
var runSSH = func(ctx context.Context, args []string) error {
	path, err := exec.LookPath("ssh")
	if err != nil {
		return errors.New("no ssh binary found in PATH")
	}
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// SSH opens an interactive shell on a server's host with the tool's key.
func SSH(ctx context.Context, configPath, name string) error {
	env, err := loadEnv(configPath)
	if err != nil {
		return err
	}
	inst, err := resolveInstance(env.Store, name)
	if err != nil {
		return err
	}
	if inst.PublicIP == "" {
		return fmt.Errorf("%s has no public address yet (phase %s)", inst.Name, inst.Phase)
	}

	fmt.Printf("Connecting to %s (%s)...\n", inst.Name, inst.PublicIP)
	return runSSH(ctx, sshArgs(env, inst.PublicIP))
}

// sshArgs builds the argument list for the system ssh.
func sshArgs(env *Env, ip string) []string {
	return []string{
		"-i", env.Paths.PrivateKeyFile(),
		"-o", "StrictHostKeyChecking=accept-new",
		"root@" + ip,
	}
}
