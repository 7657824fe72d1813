package handlers

import (
	"context"
	"fmt"
)

// List prints every tracked server with its phase and address.
func List(_ context.Context, configPath string) error {
	env, err := loadEnv(configPath)
	if err != nil {
		return err
	}

	instances, err := env.Store.List()
	if err != nil {
		return err
	}
	if len(instances) == 0 {
		fmt.Println("No servers yet. Create one with 'srcdsctl create'.")
		return nil
	}

	fmt.Print(renderInstanceList(instances))
	return nil
}
