package pipeline

import (
	"context"
	"os"
	"sync"

	"o2rconv/internal/engine"
)

type fakeFactory struct {
	mu       sync.Mutex
	newErr   error
	created  []*fakeSession
	template fakeSession
}

func (f *fakeFactory) NewSession(_ context.Context, opts engine.Options) (engine.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.newErr != nil {
		return nil, f.newErr
	}
	sess := &fakeSession{
		opts:         opts,
		registerErr:  f.template.registerErr,
		processErr:   f.template.processErr,
		panicProcess: f.template.panicProcess,
		writeOutput:  f.template.writeOutput,
		cartridge:    f.template.cartridge,
		panicClose:   f.template.panicClose,
	}
	f.created = append(f.created, sess)
	return sess, nil
}

func (f *fakeFactory) sessions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func (f *fakeFactory) last() *fakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.created) == 0 {
		return nil
	}
	return f.created[len(f.created)-1]
}

type fakeSession struct {
	opts         engine.Options
	registerErr  error
	processErr   error
	panicProcess bool
	writeOutput  bool
	cartridge    *engine.Cartridge
	panicClose   bool

	export     engine.ExportType
	registered bool
	processed  bool
	closed     int
}

func (s *fakeSession) RegisterFactories(_ context.Context, export engine.ExportType) error {
	s.export = export
	if s.registerErr != nil {
		return s.registerErr
	}
	s.registered = true
	return nil
}

func (s *fakeSession) Process(context.Context) error {
	if s.panicProcess {
		panic("segmentation fault in exporter")
	}
	if s.processErr != nil {
		return s.processErr
	}
	if s.writeOutput {
		if err := os.WriteFile(s.opts.OutputPath, []byte("PK\x05\x06 archive"), 0o644); err != nil {
			return err
		}
	}
	s.processed = true
	return nil
}

func (s *fakeSession) Cartridge() (engine.Cartridge, bool) {
	if s.cartridge == nil || !s.processed {
		return engine.Cartridge{}, false
	}
	return *s.cartridge, true
}

func (s *fakeSession) Close() error {
	s.closed++
	if s.panicClose {
		panic("engine teardown crashed")
	}
	return nil
}
