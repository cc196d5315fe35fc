package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"storefront.GO/core/registry"
)

func TestRegistry_Register_Apply(t *testing.T) {
	out := &bytes.Buffer{}
	testCmd := &cobra.Command{
		Use: "test:registry",
		Run: func(c *cobra.Command, args []string) {
			out.WriteString("ok")
		},
	}
	Register(testCmd)
	Apply()

	// Verify command exists and runs
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"test:registry"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.String() != "ok" {
		t.Errorf("output = %q, want ok", out.String())
	}
}

func TestRegistry_DuplicateOfBuiltinPanics(t *testing.T) {
	wasLocked := registry.GlobalRegistry.IsLocked(registry.KeyRegistryCmd)
	registry.GlobalRegistry.UnlockForTesting(registry.KeyRegistryCmd)
	defer func() {
		if wasLocked {
			registry.GlobalRegistry.Lock(registry.KeyRegistryCmd)
		}
		r := recover()
		if msg, _ := r.(string); !strings.Contains(msg, "duplicate command serve") {
			t.Errorf("recover() = %v, want duplicate panic", r)
		}
	}()
	Register(&cobra.Command{Use: "serve"})
}
