package main

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xdg-go/javabin"
)

// convertStream converts every javabin value in r and writes the result to
// w.  It returns the number of values converted.
func convertStream(r io.Reader, w io.Writer, cfg *Config) (int, error) {
	src, c, err := decompressStream(r, cfg.Decompress)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	out := bufio.NewWriter(w)
	dec := javabin.NewDecoderSize(src, cfg.bufferBytes)
	dec.MaxDepth(cfg.MaxDepth)

	var sink javabin.Sink
	var bw *javabin.BSONWriter
	if cfg.Format == "bson" {
		bw = javabin.NewBSONWriter(nil)
		sink = bw
	} else {
		jw := javabin.NewJSONWriter(out)
		if cfg.order != nil {
			jw.UTF16(cfg.order)
		}
		sink = jw
	}

	n := 0
	for {
		err := dec.Decode(sink)
		if err == io.EOF {
			break
		}
		if err != nil {
			if c != None {
				return n, errors.Wrapf(err, "value %d (%s input)", n+1, c)
			}
			return n, errors.Wrapf(err, "value %d", n+1)
		}
		if bw != nil {
			if _, err := out.Write(bw.Bytes()); err != nil {
				return n, errors.Wrap(err, "writing output")
			}
			bw.Reset(bw.Bytes()[:0])
		}
		n++
	}
	if err := out.Flush(); err != nil {
		return n, errors.Wrap(err, "writing output")
	}
	return n, nil
}

// outputPath maps an input file to its converted file under dir.
func outputPath(input, dir, ext string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+ext)
}

// convertFile converts input into target.  The output is removed again if
// conversion fails.
func convertFile(input, target string, cfg *Config, log *logrus.Entry) (err error) {
	in, err := os.Open(input)
	if err != nil {
		return errors.Wrap(err, "opening input")
	}
	defer in.Close()

	// Creating the target truncates it, so it must not be the input under
	// another name.
	inInfo, err := in.Stat()
	if err != nil {
		return errors.Wrap(err, "reading input")
	}
	if outInfo, err := os.Stat(target); err == nil && os.SameFile(inInfo, outInfo) {
		return errors.Errorf("output %s would overwrite input", target)
	}

	out, err := os.Create(target)
	if err != nil {
		return errors.Wrap(err, "creating output")
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "closing output")
		}
		if err != nil {
			os.Remove(target)
		}
	}()

	n, err := convertStream(in, out, cfg)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"output": target, "values": n}).Debug("converted")
	return nil
}

// planOutputs maps every input to its output file.  Inputs whose output
// would be shared with another input, or would be one of the inputs, get an
// error instead of a target.
func planOutputs(inputs []string, dir, ext string) ([]string, []error) {
	targets := make([]string, len(inputs))
	errs := make([]error, len(inputs))

	abs := func(path string) string {
		if a, err := filepath.Abs(path); err == nil {
			return a
		}
		return filepath.Clean(path)
	}

	isInput := make(map[string]bool, len(inputs))
	for _, input := range inputs {
		isInput[abs(input)] = true
	}

	users := make(map[string][]int, len(inputs))
	for i, input := range inputs {
		targets[i] = outputPath(input, dir, ext)
		key := abs(targets[i])
		users[key] = append(users[key], i)
		if isInput[key] {
			errs[i] = errors.Errorf("output %s would overwrite input", targets[i])
		}
	}
	for _, idx := range users {
		if len(idx) < 2 {
			continue
		}
		for _, i := range idx {
			if errs[i] == nil {
				errs[i] = errors.Errorf("output %s is shared by %d inputs", targets[i], len(idx))
			}
		}
	}
	return targets, errs
}

// convertFiles converts all inputs on a pool of cfg.Workers goroutines.  Every
// failure is logged; the returned error only counts them.
func convertFiles(inputs []string, cfg *Config, logger *logrus.Logger) error {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}

	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return errors.Wrap(err, "starting workers")
	}
	defer pool.Release()

	targets, planErrs := planOutputs(inputs, cfg.OutputDir, cfg.extension())

	var (
		wg     sync.WaitGroup
		failed int32
	)
	for i, input := range inputs {
		input, target := input, targets[i]
		log := logger.WithField("input", input)
		if planErrs[i] != nil {
			atomic.AddInt32(&failed, 1)
			log.WithError(planErrs[i]).Error("conversion failed")
			continue
		}
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if err := convertFile(input, target, cfg, log); err != nil {
				atomic.AddInt32(&failed, 1)
				log.WithError(err).Error("conversion failed")
			}
		})
		if err != nil {
			wg.Done()
			atomic.AddInt32(&failed, 1)
			log.WithError(err).Error("could not schedule conversion")
		}
	}
	wg.Wait()

	if failed > 0 {
		return errors.Errorf("%d of %d inputs failed", failed, len(inputs))
	}
	return nil
}
