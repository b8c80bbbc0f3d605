// Package config loads and validates galleria configuration.
//
// Sources are merged in precedence order: CLI flags override environment
// variables (prefix GALLERIA_, dots become underscores), which override
// config files, which override built-in defaults. Multiple config files may
// be passed; later files win.
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The loaded struct is validated with go-playground/validator before being
// returned, so a Config in hand is always usable.
package config
