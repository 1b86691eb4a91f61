package main

import (
	"fmt"

	"github.com/spf13/pflag"
)

// bindFlag ties a flag to a config key. Flags only override the config when
// set explicitly.
func bindFlag(f *pflag.Flag, key string) {
	if err := loader.Viper().BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("binding --%s: %v", f.Name, err))
	}
}
