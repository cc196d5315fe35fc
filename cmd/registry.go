package cmd

import (
	"github.com/spf13/cobra"

	"storefront.GO/core/registry"
)

func registered() []*cobra.Command {
	if v, ok := registry.GlobalRegistry.GetGlobal(registry.KeyRegistryCmd); ok && v != nil {
		return v.([]*cobra.Command)
	}
	return nil
}

// Register adds an extension command. Call from init() in custom packages. Panics if the
// registry is locked or the command name is taken.
func Register(c *cobra.Command) {
	if registry.GlobalRegistry.IsLocked(registry.KeyRegistryCmd) {
		panic("cmd/registry: locked (register only during init before Apply)")
	}
	name := c.Name()
	if name == "" {
		panic("cmd/registry: command without a name")
	}
	for _, existing := range append(registered(), rootCmd.Commands()...) {
		if existing.Name() == name {
			panic("cmd/registry: duplicate command " + name)
		}
	}
	registry.GlobalRegistry.SetGlobal(registry.KeyRegistryCmd, append(registered(), c))
}

// Apply adds all registered commands to root and locks the registry. Later calls are no-ops.
func Apply() {
	if registry.GlobalRegistry.IsLocked(registry.KeyRegistryCmd) {
		return
	}
	rootCmd.AddCommand(registered()...)
	registry.GlobalRegistry.Lock(registry.KeyRegistryCmd)
}
