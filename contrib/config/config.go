package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/relayhttp/relay/contrib/log"
)

// Config loads one bound of configuration struct T from its sources,
// once. relay has no hot-reloadable configuration (spec.md's CLI
// contract is the only live-tunable surface, and the blacklist is
// explicitly read-only after startup per spec.md §4.7), so unlike a
// generic config layer this deliberately does not watch sources or
// notify observers — there is nothing here that should change without
// a restart.
type Config[T any] interface {
	Scan(v *T) error
	Close() error
}

type config[T any] struct {
	opts *options
}

// New constructs a Config reading from the given sources.
func New[T any](opts ...Option) Config[T] {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return &config[T]{opts: o}
}

func (c *config[T]) Scan(v *T) error {
	for _, source := range c.opts.sources {
		files, err := source.Load()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("config file not found: %w", err)
			}
			return err
		}
		for _, file := range files {
			if file.Value == nil {
				continue
			}
			log.Debugf("[config] load file: %#+v format: %s", file.Key, file.Format)
			unmarshal := toUnmarshal(file.Format)
			if err := unmarshal(file.Value, v); err != nil {
				log.Errorf("[config] unmarshal file: %#+v error: %s", file.Key, err)
			}
		}
	}
	return nil
}

func (c *config[T]) Close() error {
	return nil
}
