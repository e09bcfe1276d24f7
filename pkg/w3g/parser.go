package w3g

import (
	"io"
	"os"
)

type options struct {
	strict      bool
	workers     int
	inflater    Inflater
	diagnostics Diagnostics
}

// Option configures a Parser.
type Option func(*options)

// WithStrict makes the parser require the magic string and verify block
// checksums. Replays that the permissive parser accepts may be rejected.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithWorkers sets how many blocks are inflated concurrently.
// Values below 2 inflate sequentially.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithInflater replaces the zlib block inflater.
func WithInflater(inf Inflater) Option {
	return func(o *options) { o.inflater = inf }
}

// WithDiagnostics sets the sink for decoder events.
func WithDiagnostics(d Diagnostics) Option {
	return func(o *options) { o.diagnostics = d }
}

// Parser is the main W3G replay parser. A Parser holds no per-decode state
// and may be shared between goroutines as long as its Diagnostics can be.
type Parser struct {
	opts options
}

// NewParser creates a new parser instance.
func NewParser(opts ...Option) *Parser {
	o := options{
		workers:     1,
		inflater:    ZlibInflater{},
		diagnostics: NopDiagnostics{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Parser{opts: o}
}

// Strict reports whether the parser runs in strict mode.
func (p *Parser) Strict() bool { return p.opts.strict }

// Parse parses a complete replay file.
func (p *Parser) Parse(filepath string) (*Replay, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return p.ParseBytes(data)
}

// ParseStream parses a replay from an io.Reader.
func (p *Parser) ParseStream(r io.Reader) (*Replay, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return p.ParseBytes(data)
}

// ParseHeaderOnly parses just the header (for quick metadata access).
func (p *Parser) ParseHeaderOnly(filepath string) (*ReplayHeader, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, HeaderV1Total)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return parseHeaderFromBytes(buf[:n])
}

// ParseBytes decodes one replay held in memory. It returns either a complete
// Replay or the first fatal error.
func (p *Parser) ParseBytes(data []byte) (*Replay, error) {
	// 1. File header
	c := newCursor(data, StageHeader)
	header, err := parseHeader(c)
	if err != nil {
		return nil, err
	}
	if p.opts.strict && !header.HasMagic() {
		return nil, newInvalidHeaderError("invalid magic string")
	}

	// 2. Blocks into one stream
	stream, err := decompressBlocks(c, header, &p.opts)
	if err != nil {
		return nil, err
	}

	// 3. Lobby: players, settings, slots
	sc := newCursor(stream, StagePlayers)
	l, err := parseLobby(sc)
	if err != nil {
		return nil, err
	}

	// 4. Replay data records
	s := newStreamParser(sc, l.players, p.opts.diagnostics)
	if err := s.run(); err != nil {
		return nil, err
	}

	return assembleReplay(header, l, s), nil
}

// IterActions returns a channel for iterating the actions of a replay file.
func (p *Parser) IterActions(filepath string) (<-chan Action, <-chan error) {
	actionCh := make(chan Action)
	errCh := make(chan error, 1)

	go func() {
		defer close(actionCh)
		defer close(errCh)

		replay, err := p.Parse(filepath)
		if err != nil {
			errCh <- err
			return
		}

		for _, action := range replay.Actions {
			actionCh <- action
		}
	}()

	return actionCh, errCh
}
