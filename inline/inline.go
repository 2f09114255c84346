// Package inline provides the implementation for the application's non-interactive, programmable execution mode.
package inline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/streamscout/streamscout/log"
)

var errNoResolver = errors.New("no resolver configured")

func Run(ctx context.Context, options *Options) error {
	if options.Out == nil {
		options.Out = os.Stdout
	}
	if options.Resolver == nil {
		return errNoResolver
	}

	ref := options.Reference
	if err := ref.Validate(); err != nil {
		return err
	}

	output := &Output{Reference: ref}

	// Step 1: Serve from the result cache when a live entry exists.
	if c, ok := options.Cache.Get(); ok {
		if streams, hit := c.Get(ref).Get(); hit {
			log.WithField("ref", ref.String()).Debug("cache hit")
			output.Cached = true
			output.Streams = streams
		}
	}

	// Step 2: Otherwise run every extractor and remember the ranked list.
	if !output.Cached {
		report := options.Resolver.ResolveAll(ctx, ref)
		output.Streams = report.Streams
		output.Results = report.Results

		for provider, msg := range report.Errors() {
			log.WithFields(logrus.Fields{"provider": provider, "error": msg}).Warn("extractor failed")
		}

		if c, ok := options.Cache.Get(); ok {
			if err := c.Set(ref, report.Streams); err != nil {
				log.Warnf("failed to cache streams for %s: %v", ref, err)
			}
		}
	}

	// Step 3: Apply the caller's filters, keeping the ranking.
	for _, filter := range []func() (StreamFilter, bool){options.TypeFilter.Get, options.LanguageFilter.Get} {
		if f, ok := filter(); ok {
			output.Streams = f(output.Streams)
		}
	}

	// Step 4: Dispatch the results to the configured output writer.
	if options.Json {
		return writeJson(options.Out, output)
	}

	for _, s := range output.Streams {
		log.Infof("found %s stream from %s", s.Type, s.Provider)
		if _, err := fmt.Fprintln(options.Out, s.URL); err != nil {
			return err
		}
	}

	return nil
}

func writeJson(out io.Writer, output *Output) error {
	data, err := asJson(output)
	if err != nil {
		return err
	}
	_, err = out.Write(append(data, '\n'))
	return err
}
