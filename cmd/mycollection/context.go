package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dvdlevanon/my-collection-sub000/internal/cache"
	"github.com/dvdlevanon/my-collection-sub000/internal/collection"
	"github.com/dvdlevanon/my-collection-sub000/internal/config"
	"github.com/dvdlevanon/my-collection-sub000/internal/library"
	"github.com/dvdlevanon/my-collection-sub000/internal/logging"
)

type globalFlags struct {
	config string
	server string
	prefs  string
	poll   int
	json   bool
}

type commandContext struct {
	flags *globalFlags

	once sync.Once
	lib  *library.Service
	err  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

// library builds the service shared by every subcommand. CLI runs log to
// stderr at warn level so tables stay clean.
func (c *commandContext) library() (*library.Service, error) {
	c.once.Do(func() {
		cfg, err := config.Load(c.flags.config)
		if err != nil {
			c.err = fmt.Errorf("load config: %w", err)
			return
		}
		if server := strings.TrimSpace(c.flags.server); server != "" {
			cfg.Server = server
		}
		logger, _, err := logging.New(logging.Options{
			Level:  "warn",
			Format: cfg.LogFormat,
			Stderr: true,
		})
		if err != nil {
			c.err = fmt.Errorf("init logging: %w", err)
			return
		}
		client, err := collection.NewClient(cfg.Server)
		if err != nil {
			c.err = fmt.Errorf("init collection client: %w", err)
			return
		}
		c.lib = library.New(client, cache.New(), logging.NewComponentLogger(logger, "cli"))
	})
	return c.lib, c.err
}

func (c *commandContext) withLibrary(cmd *cobra.Command, fn func(context.Context, *library.Service) error) error {
	lib, err := c.library()
	if err != nil {
		return err
	}
	return fn(cmd.Context(), lib)
}

func (c *commandContext) jsonOutput() bool {
	return c.flags != nil && c.flags.json
}
