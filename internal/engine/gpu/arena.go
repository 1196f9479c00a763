package gpu

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownHandle is returned for handles the arena never issued.
	ErrUnknownHandle = errors.New("gpu: unknown texture handle")
	// ErrNotWriter is returned when a stage asks for write access to a
	// texture it did not declare at creation.
	ErrNotWriter = errors.New("gpu: stage is not the texture's writer")
)

// Handle addresses a texture in an Arena. The zero handle is never issued.
type Handle uint32

// Valid reports whether h could have been issued by an arena.
func (h Handle) Valid() bool { return h != 0 }

type arenaEntry struct {
	tex    Texture
	writer string
}

// Arena owns textures shared between stages. Readers get Sampled views;
// only the stage named at creation can obtain the writable Texture.
type Arena struct {
	dev     Device
	entries []arenaEntry
	byName  map[string]Handle
}

// NewArena returns an empty arena allocating through dev.
func NewArena(dev Device) *Arena {
	return &Arena{dev: dev, byName: make(map[string]Handle)}
}

// Create allocates a texture whose only writer is stage.
func (a *Arena) Create(desc TextureDesc, writer string) (Handle, error) {
	tex, err := a.dev.NewTexture(desc)
	if err != nil {
		return 0, fmt.Errorf("creating texture %q: %w", desc.Name, err)
	}
	a.entries = append(a.entries, arenaEntry{tex: tex, writer: writer})
	h := Handle(len(a.entries))
	if desc.Name != "" {
		a.byName[desc.Name] = h
	}
	return h, nil
}

// Sampled returns the read-only view of h.
func (a *Arena) Sampled(h Handle) (Sampled, error) {
	e, err := a.entry(h)
	if err != nil {
		return nil, err
	}
	return e.tex, nil
}

// Writable returns the writable view of h if stage is its declared writer.
func (a *Arena) Writable(h Handle, stage string) (Texture, error) {
	e, err := a.entry(h)
	if err != nil {
		return nil, err
	}
	if e.writer != stage {
		return nil, fmt.Errorf("%w: %q writes %q, not %q", ErrNotWriter, e.writer, e.tex.Name(), stage)
	}
	return e.tex, nil
}

// Writer returns the stage allowed to write h.
func (a *Arena) Writer(h Handle) (string, error) {
	e, err := a.entry(h)
	if err != nil {
		return "", err
	}
	return e.writer, nil
}

// Lookup finds a texture handle by the name it was created with.
func (a *Arena) Lookup(name string) (Handle, bool) {
	h, ok := a.byName[name]
	return h, ok
}

// Len returns the number of textures in the arena.
func (a *Arena) Len() int { return len(a.entries) }

func (a *Arena) entry(h Handle) (arenaEntry, error) {
	if h == 0 || int(h) > len(a.entries) {
		return arenaEntry{}, fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	return a.entries[h-1], nil
}
