package object

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// Store is a content-addressed loose object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123...
type Store struct {
	root   string
	level  int
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithCompressionLevel sets the zlib level used for new objects.
func WithCompressionLevel(level int) Option {
	return func(s *Store) {
		if level >= zlib.HuffmanOnly && level <= zlib.BestCompression {
			s.level = level
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a Store rooted at the given git directory. The objects/
// subdirectory is created lazily on first write.
func NewStore(root string, opts ...Option) *Store {
	s := &Store{
		root:   root,
		level:  zlib.DefaultCompression,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the directory that contains objects/.
func (s *Store) Root() string { return s.root }

// Path returns the filesystem path for a given hash, or "" when h is not
// a valid hash.
func (s *Store) Path(h Hash) string {
	if !h.Valid() {
		return ""
	}
	return filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	if !h.Valid() {
		return false
	}
	_, err := os.Stat(s.Path(h))
	return err == nil
}

// Write encodes and stores a record, returning its hash.
func (s *Store) Write(r Record) (Hash, error) {
	payload, err := Encode(r)
	if err != nil {
		return "", fmt.Errorf("object write: %w", err)
	}
	return s.WriteRaw(r.Kind(), payload)
}

// WriteRaw stores a payload of the given kind and returns its content hash.
// The file holds the zlib-compressed envelope "kind len\0payload". An
// existing object is never rewritten. New objects are written to a temp
// file and renamed into place.
func (s *Store) WriteRaw(kind Kind, payload []byte) (Hash, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return "", fmt.Errorf("object write: %w", err)
	}
	h := HashObject(kind, payload)

	// Fast path: already exists.
	if s.Has(h) {
		s.logger.Debug("object exists", "hash", h, "kind", kind)
		return h, nil
	}

	dir := filepath.Join(s.root, "objects", string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	zw, err := zlib.NewWriterLevel(tmp, s.level)
	if err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("object write: %w", err)
	}
	_, err = zw.Write(frameHeader(kind, len(payload)))
	if err == nil {
		_, err = zw.Write(payload)
	}
	if err == nil {
		err = zw.Close()
	}
	if err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("object write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write close: %w", err)
	}
	if err := os.Chmod(tmpName, 0o444); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write chmod: %w", err)
	}

	if err := os.Rename(tmpName, s.Path(h)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write rename: %w", err)
	}

	s.logger.Debug("object written", "hash", h, "kind", kind, "size", len(payload))
	return h, nil
}

// ReadRaw retrieves an object by hash, returning its kind and raw payload.
// At most the declared payload length plus one byte is inflated, so an
// object whose stream runs past its header is rejected without being
// expanded in full.
func (s *Store) ReadRaw(h Hash) (Kind, []byte, error) {
	if !h.Valid() {
		return "", nil, fmt.Errorf("object read: %w: %q", ErrInvalidHash, string(h))
	}
	f, err := os.Open(s.Path(h))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Errorf("object read %s: %w", h, ErrNotFound)
		}
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}
	defer f.Close()

	zr, err := zlib.NewReader(f)
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: inflate: %w: %v", h, ErrCorruptPayload, err)
	}
	defer zr.Close()

	kind, payload, err := readEnvelope(zr)
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}
	return kind, payload, nil
}

// maxEnvelopeHeader bounds the "kind len\0" prefix.
const maxEnvelopeHeader = 64

// readEnvelope parses "kind len\0payload" from an inflating reader. The
// declared length is checked before the kind tag.
func readEnvelope(r io.Reader) (Kind, []byte, error) {
	br := bufio.NewReaderSize(r, maxEnvelopeHeader)
	header, err := br.ReadSlice(0)
	switch {
	case errors.Is(err, bufio.ErrBufferFull), errors.Is(err, io.EOF):
		return "", nil, fmt.Errorf("%w: envelope has no NUL", ErrCorruptPayload)
	case err != nil:
		return "", nil, fmt.Errorf("%w: inflate: %v", ErrCorruptPayload, err)
	}
	header = header[:len(header)-1]

	sp := bytes.IndexByte(header, ' ')
	if sp < 0 {
		return "", nil, fmt.Errorf("%w: envelope has no kind separator", ErrCorruptPayload)
	}
	tag := string(header[:sp])
	length, err := strconv.ParseInt(string(header[sp+1:]), 10, 64)
	if err != nil || length < 0 {
		return "", nil, fmt.Errorf("%w: invalid length %q", ErrCorruptPayload, header[sp+1:])
	}

	payload, err := io.ReadAll(io.LimitReader(br, length+1))
	if err != nil {
		return "", nil, fmt.Errorf("%w: inflate: %v", ErrCorruptPayload, err)
	}
	if int64(len(payload)) > length {
		return "", nil, fmt.Errorf("%w (header=%d, actual>%d)", ErrSizeMismatch, length, length)
	}
	if int64(len(payload)) < length {
		return "", nil, fmt.Errorf("%w (header=%d, actual=%d)", ErrSizeMismatch, length, len(payload))
	}
	kind, err := ParseKind(tag)
	if err != nil {
		return "", nil, err
	}
	return kind, payload, nil
}

// Read retrieves and decodes an object.
func (s *Store) Read(h Hash) (Record, error) {
	kind, payload, err := s.ReadRaw(h)
	if err != nil {
		return nil, err
	}
	r, err := Decode(kind, payload)
	if err != nil {
		return nil, fmt.Errorf("object read %s: %w", h, err)
	}
	return r, nil
}

// Kind returns the kind of a stored object.
func (s *Store) Kind(h Hash) (Kind, error) {
	kind, _, err := s.ReadRaw(h)
	return kind, err
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

func readAs[T Record](s *Store, h Hash, want Kind) (T, error) {
	var zero T
	r, err := s.Read(h)
	if err != nil {
		return zero, err
	}
	v, ok := r.(T)
	if !ok {
		return zero, fmt.Errorf("object %s: %w: got %q, want %q", h, ErrKindMismatch, r.Kind(), want)
	}
	return v, nil
}

// ReadBlob reads and deserializes a Blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	return readAs[*Blob](s, h, KindBlob)
}

// ReadTree reads and deserializes a Tree.
func (s *Store) ReadTree(h Hash) (*Tree, error) {
	return readAs[*Tree](s, h, KindTree)
}

// ReadCommit reads and deserializes a Commit.
func (s *Store) ReadCommit(h Hash) (*Commit, error) {
	return readAs[*Commit](s, h, KindCommit)
}

// ReadTag reads and deserializes a Tag.
func (s *Store) ReadTag(h Hash) (*Tag, error) {
	return readAs[*Tag](s, h, KindTag)
}

// ---------------------------------------------------------------------------
// Enumeration
// ---------------------------------------------------------------------------

// List returns the hashes of all loose objects, sorted.
func (s *Store) List() ([]Hash, error) {
	return s.FindPrefix("")
}

// FindPrefix returns the sorted hashes of loose objects whose hex form
// starts with prefix.
func (s *Store) FindPrefix(prefix string) ([]Hash, error) {
	prefix = strings.ToLower(prefix)
	if len(prefix) > 2*HashSize || !isHex(prefix) {
		return nil, fmt.Errorf("find prefix: %w: %q", ErrInvalidHash, prefix)
	}

	objectsDir := filepath.Join(s.root, "objects")
	fanouts, err := os.ReadDir(objectsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("find prefix: %w", err)
	}

	var out []Hash
	for _, d := range fanouts {
		name := d.Name()
		if !d.IsDir() || len(name) != 2 || !isHex(name) {
			continue
		}
		if len(prefix) >= 2 && name != prefix[:2] {
			continue
		}
		if len(prefix) == 1 && name[0] != prefix[0] {
			continue
		}
		files, err := os.ReadDir(filepath.Join(objectsDir, name))
		if err != nil {
			return nil, fmt.Errorf("find prefix: %w", err)
		}
		for _, f := range files {
			h := Hash(name + f.Name())
			if f.IsDir() || !h.Valid() {
				continue
			}
			if strings.HasPrefix(string(h), prefix) {
				out = append(out, h)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// VerifyReport summarizes a Verify pass.
type VerifyReport struct {
	Objects int
	Corrupt map[Hash]error
}

// Verify re-reads every loose object, checking its envelope, its payload
// grammar and that its content hashes to its file name.
func (s *Store) Verify() (*VerifyReport, error) {
	hashes, err := s.List()
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	report := &VerifyReport{Corrupt: make(map[Hash]error)}
	for _, h := range hashes {
		report.Objects++
		kind, payload, err := s.ReadRaw(h)
		if err != nil {
			report.Corrupt[h] = err
			continue
		}
		if got := HashObject(kind, payload); got != h {
			report.Corrupt[h] = fmt.Errorf("content hashes to %s", got)
			continue
		}
		if _, err := Decode(kind, payload); err != nil {
			report.Corrupt[h] = err
		}
	}
	return report, nil
}
