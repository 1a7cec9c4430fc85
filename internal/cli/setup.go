package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/flowvault/flowvault/internal/cache"
	"github.com/flowvault/flowvault/internal/schema"
	"github.com/flowvault/flowvault/internal/store"
	"github.com/flowvault/flowvault/internal/versioning"
)

// configureLogging routes slog to stderr at a level set by the verbose
// flag. One-shot commands stay quiet unless asked; the formatter output
// on stdout is the product.
func configureLogging(verbose bool) {
	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// openStore opens the database resolved from the --db flag, falling
// back to the config file.
func openStore(opts *RootOptions, flagDB string) (*store.Store, error) {
	path := flagDB
	if path == "" && opts.Config != nil {
		path = opts.Config.Database
	}
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no database path: pass --db or set database in the config file")
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// newService assembles the versioning service over an open store,
// attaching the cache and the schema guard per configuration.
func newService(opts *RootOptions, st *store.Store) (*versioning.Service, error) {
	var svcOpts []versioning.Option
	if opts.Config.CacheEnabled() {
		svcOpts = append(svcOpts, versioning.WithCache(cache.NewMemory()))
	}
	if opts.Config != nil && opts.Config.SchemaFile != "" {
		guard, err := schema.FromFile(opts.Config.SchemaFile)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load schema", err)
		}
		svcOpts = append(svcOpts, versioning.WithDraftValidator(guard))
	}
	return versioning.New(st, svcOpts...), nil
}

// parseFlowID parses the <flow-id> positional argument.
func parseFlowID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid flow id %q", arg))
	}
	return id, nil
}

// resolvePublisher turns the --by value (or the configured default)
// into a publisher ID. Values that are not UUIDs are hashed into a
// stable one, so the same name always maps to the same publisher.
func resolvePublisher(opts *RootOptions, flagBy string) (uuid.UUID, error) {
	val := flagBy
	if val == "" && opts.Config != nil {
		val = opts.Config.DefaultPublisher
	}
	if val == "" {
		return uuid.Nil, NewExitError(ExitCommandError, "no publisher: pass --by or set default_publisher in the config file")
	}
	if id, err := uuid.Parse(val); err == nil {
		return id, nil
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(val)), nil
}

// operationError maps a failed service call to the failure exit code.
func operationError(op string, err error) error {
	return WrapExitError(ExitFailure, op+" failed", err)
}
