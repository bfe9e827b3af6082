package obfile

import (
	"errors"
	"io"

	"github.com/absfs/absfs"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// ProcessorConfig configures a batch Processor.
type ProcessorConfig struct {
	// FS is the filesystem all inputs and outputs live on.
	FS absfs.FileSystem

	// Params are the key derivation parameters. The zero value selects
	// DefaultScryptParams.
	Params ScryptParams

	// RemoveOriginals deletes each source file or directory after it has
	// been processed successfully. Failed entries are never deleted.
	RemoveOriginals bool

	// Logger receives progress and warning output. Nil discards it.
	Logger *logrus.Logger
}

// Processor applies the encryption engine across a set of files or
// directories, sequentially, with one passphrase hash per batch. Per-file
// failures are collected and reported; they do not abort the remaining
// entries.
type Processor struct {
	fsys            absfs.FileSystem
	engine          *Engine
	removeOriginals bool
	log             *logrus.Logger
}

// NewProcessor creates a batch processor.
func NewProcessor(cfg *ProcessorConfig) (*Processor, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.FS == nil {
		return nil, errors.New("filesystem cannot be nil")
	}

	params := cfg.Params
	if params == (ScryptParams{}) {
		params = DefaultScryptParams()
	}
	engine, err := NewEngine(params)
	if err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	return &Processor{
		fsys:            cfg.FS,
		engine:          engine,
		removeOriginals: cfg.RemoveOriginals,
		log:             log,
	}, nil
}

// BatchResult reports the outcome of one batch. Outputs and Failures
// together cover every input; their order carries no meaning.
type BatchResult struct {
	Outputs  []string         // paths written for successful entries
	Failures []*BatchError    // one entry per failed input
	Warnings []*NamingWarning // fallback-naming notices, not failures
}

// Err returns all per-file failures as one aggregate error, or nil if every
// entry succeeded.
func (r *BatchResult) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	var merr *multierror.Error
	for _, f := range r.Failures {
		merr = multierror.Append(merr, f)
	}
	return merr.ErrorOrNil()
}

func (r *BatchResult) fail(path, op string, err error) {
	r.Failures = append(r.Failures, &BatchError{Path: path, Op: op, Err: err})
}

// EncryptFiles encrypts every path into <path>.enc. Files are processed one
// at a time in no guaranteed order.
func (p *Processor) EncryptFiles(paths []string, passphraseHash []byte) (*BatchResult, error) {
	if len(passphraseHash) == 0 {
		return nil, errors.New("passphrase hash cannot be empty")
	}

	result := &BatchResult{}
	for _, file := range paths {
		out, berr := p.encryptOne(file, passphraseHash)
		if berr != nil {
			p.log.Errorf("encrypt %s: %v", file, berr.Err)
			result.Failures = append(result.Failures, berr)
			continue
		}
		result.Outputs = append(result.Outputs, out)
		p.log.Infof("encrypted %s -> %s", file, out)

		if p.removeOriginals {
			if err := p.fsys.Remove(file); err != nil {
				result.fail(file, "remove", err)
			}
		}
	}
	return result, nil
}

// DecryptFiles decrypts every artifact and persists the plaintext under the
// recovered name, or under a fallback name with a NamingWarning when the
// original name cannot be inferred.
func (p *Processor) DecryptFiles(paths []string, passphraseHash []byte) (*BatchResult, error) {
	if len(passphraseHash) == 0 {
		return nil, errors.New("passphrase hash cannot be empty")
	}

	result := &BatchResult{}
	for _, file := range paths {
		out, warn, berr := p.decryptOne(file, passphraseHash)
		if warn != nil {
			p.log.Warn(warn.String())
			result.Warnings = append(result.Warnings, warn)
		}
		if berr != nil {
			p.log.Errorf("decrypt %s: %v", file, berr.Err)
			result.Failures = append(result.Failures, berr)
			continue
		}
		result.Outputs = append(result.Outputs, out)
		p.log.Infof("decrypted %s -> %s", file, out)

		if p.removeOriginals {
			if err := p.fsys.Remove(file); err != nil {
				result.fail(file, "remove", err)
			}
		}
	}
	return result, nil
}

// EncryptDirs packs each directory into a single archive blob, encrypts the
// blob, and removes the intermediate blob on success. With compress set the
// blob is a zip archive instead of a tar archive.
func (p *Processor) EncryptDirs(dirs []string, passphraseHash []byte, compress bool) (*BatchResult, error) {
	if len(passphraseHash) == 0 {
		return nil, errors.New("passphrase hash cannot be empty")
	}

	result := &BatchResult{}
	for _, dir := range dirs {
		blob, err := Pack(p.fsys, dir, compress)
		if err != nil {
			p.log.Errorf("pack %s: %v", dir, err)
			result.fail(dir, "pack", err)
			continue
		}

		out, berr := p.encryptOne(blob, passphraseHash)
		if berr != nil {
			p.log.Errorf("encrypt %s: %v", blob, berr.Err)
			result.Failures = append(result.Failures, berr)
			continue
		}
		// The plaintext blob is only removed once its encrypted form is on
		// disk.
		if err := p.fsys.Remove(blob); err != nil {
			result.fail(blob, "remove", err)
		}

		result.Outputs = append(result.Outputs, out)
		p.log.Infof("encrypted %s -> %s", dir, out)

		if p.removeOriginals {
			if err := p.fsys.RemoveAll(dir); err != nil {
				result.fail(dir, "remove", err)
			}
		}
	}
	return result, nil
}

// DecryptDirs decrypts each artifact back into its archive blob, unpacks the
// blob into a directory tree, and removes the blob on success. If unpacking
// fails the blob is preserved so extraction can be retried without another
// decryption.
func (p *Processor) DecryptDirs(paths []string, passphraseHash []byte) (*BatchResult, error) {
	if len(passphraseHash) == 0 {
		return nil, errors.New("passphrase hash cannot be empty")
	}

	result := &BatchResult{}
	for _, file := range paths {
		blob, warn, berr := p.decryptOne(file, passphraseHash)
		if warn != nil {
			p.log.Warn(warn.String())
			result.Warnings = append(result.Warnings, warn)
		}
		if berr != nil {
			p.log.Errorf("decrypt %s: %v", file, berr.Err)
			result.Failures = append(result.Failures, berr)
			continue
		}

		dir, err := Unpack(p.fsys, blob)
		if err != nil {
			p.log.Errorf("unpack %s: %v", blob, err)
			result.fail(blob, "unpack", err)
			continue
		}
		if err := p.fsys.Remove(blob); err != nil {
			result.fail(blob, "remove", err)
		}

		result.Outputs = append(result.Outputs, dir)
		p.log.Infof("decrypted %s -> %s", file, dir)

		if p.removeOriginals {
			if err := p.fsys.Remove(file); err != nil {
				result.fail(file, "remove", err)
			}
		}
	}
	return result, nil
}

func (p *Processor) encryptOne(file string, passphraseHash []byte) (string, *BatchError) {
	data, err := readFile(p.fsys, file)
	if err != nil {
		return "", &BatchError{Path: file, Op: "read", Err: err}
	}

	c, err := p.engine.Encrypt(data, passphraseHash, file)
	if err != nil {
		return "", &BatchError{Path: file, Op: "encrypt", Err: err}
	}

	blob, err := c.Marshal()
	if err != nil {
		return "", &BatchError{Path: file, Op: "encrypt", Err: err}
	}

	out := ArtifactName(file)
	if err := writeFileAtomic(p.fsys, out, blob, 0644); err != nil {
		return "", &BatchError{Path: file, Op: "write", Err: err}
	}
	return out, nil
}

func (p *Processor) decryptOne(file string, passphraseHash []byte) (string, *NamingWarning, *BatchError) {
	raw, err := readFile(p.fsys, file)
	if err != nil {
		return "", nil, &BatchError{Path: file, Op: "read", Err: err}
	}

	c, err := UnmarshalContainer(raw)
	if err != nil {
		return "", nil, &BatchError{Path: file, Op: "parse", Err: err}
	}

	data, err := p.engine.Decrypt(c, passphraseHash)
	if err != nil {
		return "", nil, &BatchError{Path: file, Op: "decrypt", Err: err}
	}

	// The container's recorded filename wins. Only when it is absent does
	// the artifact name decide, falling back to a distinct name when the
	// expected suffix is missing.
	out := c.Filename
	var warn *NamingWarning
	if out == "" {
		var ok bool
		out, ok = RestoredName(file)
		if !ok {
			warn = &NamingWarning{Artifact: file, Output: out}
		}
	}

	if err := writeFileAtomic(p.fsys, out, data, 0644); err != nil {
		return "", warn, &BatchError{Path: file, Op: "write", Err: err}
	}
	return out, warn, nil
}
