package registry

import (
	"fmt"
	"io"
	"os"
)

// Model is an opaque trained model object. The registry client never
// inspects model internals; it only moves them between streams and paths.
type Model interface {
	// Encode writes the model to the stream.
	Encode(w io.Writer) error

	// Decode reads the model back from the stream.
	Decode(r io.Reader) error
}

// Serializer is the object-serialization collaborator: it persists a model
// at a local path and restores it from one.
type Serializer interface {
	Save(model Model, path string) error
	Restore(path string) (Model, error)
}

// FileSerializer persists models through their own stream codec. Restore
// needs a factory because the concrete model type is the caller's.
type FileSerializer struct {
	newModel func() Model
}

// NewFileSerializer returns a Serializer producing models from the factory
// on restore.
func NewFileSerializer(newModel func() Model) *FileSerializer {
	return &FileSerializer{newModel: newModel}
}

// Save writes the model to the given local path.
func (s *FileSerializer) Save(model Model, path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create model file: %w", err)
	}
	if err := model.Encode(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode model: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close model file: %w", err)
	}
	return nil
}

// Restore reads a model back from the given local path.
func (s *FileSerializer) Restore(path string) (Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()

	model := s.newModel()
	if err := model.Decode(f); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	return model, nil
}

// RawModel is a Model carrying opaque bytes. The CLI uses it to log and
// fetch model files without knowing their format.
type RawModel struct {
	Data []byte
}

// Encode writes the raw bytes.
func (m *RawModel) Encode(w io.Writer) error {
	_, err := w.Write(m.Data)
	return err
}

// Decode reads the raw bytes.
func (m *RawModel) Decode(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.Data = data
	return nil
}
