package obfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"
)

const (
	// ContainerMagic identifies container files (ASCII: "OBFC")
	ContainerMagic = uint32(0x4F424643)

	// ContainerVersion is the current container format version
	ContainerVersion = uint8(1)
)

// Container is the durable unit produced by one encryption: the ciphertext
// together with all metadata needed to decrypt it. It is created once,
// serialized immediately, and never mutated afterwards.
//
// Filename is the only informational field. It records the original source
// path so decryption can restore it; its absence affects output naming only,
// never security.
type Container struct {
	Ciphertext []byte
	Salt       []byte
	Nonce      []byte
	Tag        []byte
	Filename   string
}

// Marshal serializes the container to its binary on-disk form.
//
// Layout (little-endian):
//
//	magic      uint32
//	version    uint8
//	salt       uint16 length + bytes
//	nonce      uint16 length + bytes
//	tag        uint16 length + bytes
//	filename   uint16 length + bytes (UTF-8)
//	ciphertext uint32 length + bytes
func (c *Container) Marshal() ([]byte, error) {
	if len(c.Filename) > 0xFFFF {
		return nil, fmt.Errorf("filename too long: %d bytes", len(c.Filename))
	}
	if uint64(len(c.Ciphertext)) > math.MaxUint32 {
		return nil, fmt.Errorf("ciphertext too large: %d bytes", len(c.Ciphertext))
	}

	buf := new(bytes.Buffer)

	if err := binary.Write(buf, binary.LittleEndian, ContainerMagic); err != nil {
		return nil, fmt.Errorf("failed to write magic: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, ContainerVersion); err != nil {
		return nil, fmt.Errorf("failed to write version: %w", err)
	}

	for _, field := range [][]byte{c.Salt, c.Nonce, c.Tag, []byte(c.Filename)} {
		if len(field) > 0xFFFF {
			return nil, fmt.Errorf("field too long: %d bytes", len(field))
		}
		if err := binary.Write(buf, binary.LittleEndian, uint16(len(field))); err != nil {
			return nil, fmt.Errorf("failed to write field length: %w", err)
		}
		buf.Write(field)
	}

	if err := binary.Write(buf, binary.LittleEndian, uint32(len(c.Ciphertext))); err != nil {
		return nil, fmt.Errorf("failed to write ciphertext length: %w", err)
	}
	buf.Write(c.Ciphertext)

	return buf.Bytes(), nil
}

// UnmarshalContainer parses serialized container bytes.
//
// Any decode failure, including truncation, unknown magic or version, and
// trailing bytes after the ciphertext, returns an error wrapping
// ErrMalformedContainer.
func UnmarshalContainer(data []byte) (*Container, error) {
	r := bytes.NewReader(data)

	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("%w: missing magic", ErrMalformedContainer)
	}
	if magic != ContainerMagic {
		return nil, fmt.Errorf("%w: bad magic 0x%08X", ErrMalformedContainer, magic)
	}

	var version uint8
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: missing version", ErrMalformedContainer)
	}
	if version != ContainerVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedContainer, version)
	}

	salt, err := readField(r, "salt")
	if err != nil {
		return nil, err
	}
	nonce, err := readField(r, "nonce")
	if err != nil {
		return nil, err
	}
	tag, err := readField(r, "tag")
	if err != nil {
		return nil, err
	}
	name, err := readField(r, "filename")
	if err != nil {
		return nil, err
	}

	var ctLen uint32
	if err := binary.Read(r, binary.LittleEndian, &ctLen); err != nil {
		return nil, fmt.Errorf("%w: missing ciphertext length", ErrMalformedContainer)
	}
	if uint32(r.Len()) < ctLen {
		return nil, fmt.Errorf("%w: truncated ciphertext", ErrMalformedContainer)
	}
	ciphertext := make([]byte, ctLen)
	if _, err := io.ReadFull(r, ciphertext); err != nil {
		return nil, fmt.Errorf("%w: truncated ciphertext", ErrMalformedContainer)
	}

	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedContainer, r.Len())
	}

	return &Container{
		Ciphertext: ciphertext,
		Salt:       salt,
		Nonce:      nonce,
		Tag:        tag,
		Filename:   string(name),
	}, nil
}

// readField reads one uint16 length-prefixed field.
func readField(r *bytes.Reader, name string) ([]byte, error) {
	var length uint16
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, fmt.Errorf("%w: missing %s length", ErrMalformedContainer, name)
	}
	field := make([]byte, length)
	if _, err := io.ReadFull(r, field); err != nil {
		return nil, fmt.Errorf("%w: truncated %s", ErrMalformedContainer, name)
	}
	return field, nil
}

// Equal reports whether two containers hold identical field values.
func (c *Container) Equal(o *Container) bool {
	if c == nil || o == nil {
		return c == o
	}
	return bytes.Equal(c.Ciphertext, o.Ciphertext) &&
		bytes.Equal(c.Salt, o.Salt) &&
		bytes.Equal(c.Nonce, o.Nonce) &&
		bytes.Equal(c.Tag, o.Tag) &&
		c.Filename == o.Filename
}

// ArtifactName returns the on-disk name for the encrypted form of name.
func ArtifactName(name string) string {
	return name + EncSuffix
}

// RestoredName derives an output name from an artifact path when the
// container carries no filename. It reports false when the artifact does not
// end in EncSuffix, in which case a distinct fallback name is returned so
// unrelated files are never overwritten.
func RestoredName(artifact string) (string, bool) {
	if strings.HasSuffix(artifact, EncSuffix) {
		return strings.TrimSuffix(artifact, EncSuffix), true
	}
	return artifact + RestoredSuffix, false
}
