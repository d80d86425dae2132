// Package modal holds the single-slot dialog state machine.
//
// A dialog is one of a closed set of variants. At most one is open at a time;
// opening another discards the current one. A nil Modal means no dialog.
package modal

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/tessro/ocd/internal/event"
)

// ErrNoModal is returned by Confirm when no dialog is open.
var ErrNoModal = errors.New("modal: no dialog is open")

// Modal is a dialog variant. The set of implementations is closed.
type Modal interface {
	// Kind names the variant, e.g. "rename_profile".
	Kind() string
	sealed()
}

// Editable is a variant carrying a single text field.
type Editable interface {
	Modal
	FieldValue() string
	withValue(v string) Modal
}

// RenameProfile edits a profile name. Value is pre-filled with the current name.
type RenameProfile struct {
	ProfileID string
	Value     string
}

// DeleteProfile asks for confirmation before deleting a profile.
type DeleteProfile struct {
	ProfileID string
}

// RenameChat edits a chat title. Value is pre-filled with the current title.
type RenameChat struct {
	ChatID string
	Value  string
}

// DeleteChat asks for confirmation before deleting a chat.
type DeleteChat struct {
	ChatID string
}

// SecretSet edits a secret to store.
type SecretSet struct {
	Value string
}

// SecretShow displays a stored secret. Value is nil when nothing is stored.
type SecretShow struct {
	Value *string
}

// SecretDelete asks for confirmation before deleting the secret.
type SecretDelete struct{}

func (RenameProfile) Kind() string { return "rename_profile" }
func (DeleteProfile) Kind() string { return "delete_profile" }
func (RenameChat) Kind() string    { return "rename_chat" }
func (DeleteChat) Kind() string    { return "delete_chat" }
func (SecretSet) Kind() string     { return "secret_set" }
func (SecretShow) Kind() string    { return "secret_show" }
func (SecretDelete) Kind() string  { return "secret_delete" }

func (RenameProfile) sealed() {}
func (DeleteProfile) sealed() {}
func (RenameChat) sealed()    {}
func (DeleteChat) sealed()    {}
func (SecretSet) sealed()     {}
func (SecretShow) sealed()    {}
func (SecretDelete) sealed()  {}

func (m RenameProfile) FieldValue() string { return m.Value }
func (m RenameChat) FieldValue() string    { return m.Value }
func (m SecretSet) FieldValue() string     { return m.Value }

func (m RenameProfile) withValue(v string) Modal { m.Value = v; return m }
func (m RenameChat) withValue(v string) Modal    { m.Value = v; return m }
func (m SecretSet) withValue(v string) Modal     { m.Value = v; return m }

// Confirmer performs the boundary operation behind a dialog.
// On success it returns the dialog to show next, usually nil.
type Confirmer interface {
	ConfirmModal(ctx context.Context, m Modal) (next Modal, err error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, m Modal) (Modal, error)

// ConfirmModal calls f.
func (f ConfirmFunc) ConfirmModal(ctx context.Context, m Modal) (Modal, error) {
	return f(ctx, m)
}

// Machine is the dialog slot.
type Machine struct {
	mu sync.Mutex
	// +checklocks:mu
	current Modal
	// gen increments when a dialog is opened or closed so a confirm that
	// settles after that does not clobber the newer state. Edits keep gen.
	// +checklocks:mu
	gen uint64

	changes event.Emitter[Modal]
}

// New returns a machine with no open dialog.
func New() *Machine {
	return &Machine{}
}

// Current returns the open dialog or nil.
func (m *Machine) Current() Modal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// IsOpen reports whether a dialog is open.
func (m *Machine) IsOpen() bool {
	return m.Current() != nil
}

// Open replaces any open dialog with d. Opening nil closes.
func (m *Machine) Open(d Modal) {
	m.set(d)
	if d != nil {
		slog.Debug("modal opened", "kind", d.Kind())
	}
}

// UpdateField sets the text field of an editable dialog.
// It is a no-op returning false for other variants or when nothing is open.
func (m *Machine) UpdateField(v string) bool {
	m.mu.Lock()
	e, ok := m.current.(Editable)
	if !ok {
		m.mu.Unlock()
		return false
	}
	m.current = e.withValue(v)
	current := m.current
	m.mu.Unlock()

	m.changes.Emit(current)
	return true
}

// Cancel closes the dialog. An in-flight confirm is not aborted; its
// result is discarded when it settles.
func (m *Machine) Cancel() {
	m.set(nil)
}

// Close is Cancel.
func (m *Machine) Close() {
	m.set(nil)
}

// Confirm runs c against the open dialog. On success the machine moves to the
// dialog c returned, unless the dialog changed while c ran. On failure the
// dialog stays open so the user can retry, and the error is returned.
func (m *Machine) Confirm(ctx context.Context, c Confirmer) error {
	m.mu.Lock()
	d, gen := m.current, m.gen
	m.mu.Unlock()
	if d == nil {
		return ErrNoModal
	}

	next, err := c.ConfirmModal(ctx, d)
	if err != nil {
		slog.Debug("modal confirm failed", "kind", d.Kind(), "error", err)
		return err
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		slog.Debug("modal changed during confirm; result dropped", "kind", d.Kind())
		return nil
	}
	m.current = next
	m.gen++
	m.mu.Unlock()

	m.changes.Emit(next)
	return nil
}

// Subscribe registers fn for every transition. fn receives the new dialog or nil.
func (m *Machine) Subscribe(fn func(Modal)) (unsubscribe func()) {
	return m.changes.Subscribe(fn)
}

func (m *Machine) set(d Modal) {
	m.mu.Lock()
	m.current = d
	m.gen++
	m.mu.Unlock()

	m.changes.Emit(d)
}
