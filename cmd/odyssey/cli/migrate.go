package cli

import (
	"errors"
	"fmt"
	"io"
)

// SchemaMigrator is implemented by db.Migrator.
type SchemaMigrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
}

// ErrUsage reports an unknown or incomplete command line.
var ErrUsage = errors.New("usage")

// RunMigrate executes "up", "down" or "version" and reports the outcome to out.
func RunMigrate(m SchemaMigrator, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: odyssey migrate up|down|version", ErrUsage)
	}
	switch args[0] {
	case "up":
		if err := m.Up(); err != nil {
			return err
		}
	case "down":
		if err := m.Down(); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("%w: unknown migrate command %q", ErrUsage, args[0])
	}
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "schema version %d (dirty=%t)\n", version, dirty)
	return err
}
