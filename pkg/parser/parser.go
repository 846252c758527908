package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

const readChunkSize = 64 * 1024

// Parse feeds r into p until the end of the stream and finalizes it.
// On a read error or context cancellation the entries collected so far are
// returned together with the error.
func Parse(ctx context.Context, p Parser, r io.Reader, name string, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	readErr := pump(ctx, p, r)
	if readErr != nil && !errors.Is(readErr, ctx.Err()) {
		readErr = fmt.Errorf("reading %s: %w", name, readErr)
	}

	res := p.Finish()
	if !res.Stats.Clean() {
		logger.Warn("recovered from malformed input",
			"source", name,
			"invalid_bytes", res.Stats.InvalidBytes,
			"malformed_fields", res.Stats.MalformedFields,
		)
	}
	return res, readErr
}

func pump(ctx context.Context, p Parser, r io.Reader) error {
	buf := make([]byte, readChunkSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			// Parsers never reject input.
			_, _ = p.Write(buf[:n])
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Member is one named part of a concatenated stream.
type Member struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileMember returns a Member that reads a file from disk.
func FileMember(path string) Member {
	return Member{
		Name: path,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path) // #nosec G304 -- user-provided paths are expected
		},
	}
}

// ConcatReader presents several members as one continuous byte stream.
// Members are opened lazily, one at a time and in order, and closed as soon
// as they are exhausted. A member that fails to open or read is skipped and
// its error is kept for Err.
type ConcatReader struct {
	// OnMemberEnd, if set, is called once per member with the error that
	// ended it early, or nil. It runs on the Read call after the one that
	// returned the member's last bytes.
	OnMemberEnd func(name string, err error)

	members []Member

	current     io.ReadCloser
	currentName string
	index       int
	errs        []error

	ended   bool
	endName string
	endErr  error
}

// NewConcatReader creates a reader over members.
func NewConcatReader(members []Member) *ConcatReader {
	return &ConcatReader{
		members: members,
		index:   -1,
	}
}

// Read implements io.Reader. It returns io.EOF once every member has been
// consumed.
func (r *ConcatReader) Read(p []byte) (int, error) {
	for {
		r.notifyEnd()
		if r.current == nil {
			if err := r.openNext(); err != nil {
				return 0, err
			}
			continue
		}

		n, err := r.current.Read(p)
		switch {
		case err == io.EOF:
			r.endCurrent(nil)
		case err != nil:
			err = fmt.Errorf("reading %s: %w", r.currentName, err)
			r.errs = append(r.errs, err)
			r.endCurrent(err)
		}
		if n > 0 || err == nil {
			return n, nil
		}
	}
}

// Err returns the errors of all skipped members.
func (r *ConcatReader) Err() error {
	return errors.Join(r.errs...)
}

// Close releases the open member. Remaining members are not read.
func (r *ConcatReader) Close() error {
	r.index = len(r.members)
	return r.closeCurrent()
}

func (r *ConcatReader) openNext() error {
	for {
		r.index++
		if r.index >= len(r.members) {
			return io.EOF
		}

		m := r.members[r.index]
		rc, err := m.Open()
		if err != nil {
			err = fmt.Errorf("opening %s: %w", m.Name, err)
			r.errs = append(r.errs, err)
			if r.OnMemberEnd != nil {
				r.OnMemberEnd(m.Name, err)
			}
			continue
		}

		r.current = rc
		r.currentName = m.Name
		return nil
	}
}

func (r *ConcatReader) closeCurrent() error {
	if r.current != nil {
		err := r.current.Close()
		r.current = nil
		return err
	}
	return nil
}

func (r *ConcatReader) endCurrent(err error) {
	r.closeCurrent()
	r.ended = true
	r.endName = r.currentName
	r.endErr = err
}

// notifyEnd reports a member ended by the previous Read. The caller has
// consumed its bytes by now.
func (r *ConcatReader) notifyEnd() {
	if !r.ended {
		return
	}
	r.ended = false
	if r.OnMemberEnd != nil {
		r.OnMemberEnd(r.endName, r.endErr)
	}
}
