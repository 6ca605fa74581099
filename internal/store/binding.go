package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/google/uuid"
)

// Binding is a persisted action-map row. Lower positions are matched first.
type Binding struct {
	ID         string              `json:"id"`
	Position   int                 `json:"position"`
	Handedness detector.Handedness `json:"handedness"`
	Gesture    string              `json:"gesture"`
	Action     action.Action       `json:"action"`
	Enabled    bool                `json:"enabled"`
	CreatedAt  time.Time           `json:"created_at"`
}

// ToAction converts the row into an action-map binding.
func (b *Binding) ToAction() action.Binding {
	return action.Binding{
		Handedness: b.Handedness,
		Gesture:    b.Gesture,
		Action:     b.Action,
	}
}

// BindingRepository provides CRUD operations for bindings.
type BindingRepository struct {
	db *sql.DB
}

// Bindings returns the binding repository for this store.
func (s *Store) Bindings() *BindingRepository {
	return &BindingRepository{db: s.db}
}

const bindingColumns = `id, position, handedness, gesture, kind, params, enabled, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBinding(row rowScanner) (*Binding, error) {
	b := &Binding{}
	var hand, kind, params string
	var enabled int

	if err := row.Scan(&b.ID, &b.Position, &hand, &b.Gesture, &kind, &params, &enabled, &b.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(params), &b.Action); err != nil {
		return nil, fmt.Errorf("binding %s: decode params: %w", b.ID, err)
	}
	b.Action.Kind = action.Kind(kind)
	b.Handedness = detector.Handedness(hand)
	b.Enabled = enabled != 0
	return b, nil
}

// Create validates and inserts a binding. An empty ID gets a new UUID and a
// zero Position appends the binding after the existing ones.
func (r *BindingRepository) Create(b *Binding) error {
	if err := b.ToAction().Validate(); err != nil {
		return err
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.Position == 0 {
		next, err := r.nextPosition()
		if err != nil {
			return err
		}
		b.Position = next
	}
	b.CreatedAt = time.Now()

	params, err := json.Marshal(b.Action)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`INSERT INTO bindings (`+bindingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Position, string(b.Handedness), b.Gesture, string(b.Action.Kind), string(params), b.Enabled, b.CreatedAt,
	)
	return err
}

func (r *BindingRepository) nextPosition() (int, error) {
	var max sql.NullInt64
	if err := r.db.QueryRow(`SELECT MAX(position) FROM bindings`).Scan(&max); err != nil {
		return 0, err
	}
	return int(max.Int64) + 1, nil
}

// GetByID retrieves a binding by its ID.
func (r *BindingRepository) GetByID(id string) (*Binding, error) {
	b, err := scanBinding(r.db.QueryRow(`SELECT `+bindingColumns+` FROM bindings WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// List retrieves all bindings in match order.
func (r *BindingRepository) List() ([]*Binding, error) {
	rows, err := r.db.Query(`SELECT ` + bindingColumns + ` FROM bindings ORDER BY position, created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []*Binding
	for rows.Next() {
		b, err := scanBinding(rows)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bindings, nil
}

// ActionMap returns the enabled bindings in match order.
func (r *BindingRepository) ActionMap() ([]action.Binding, error) {
	all, err := r.List()
	if err != nil {
		return nil, err
	}

	out := make([]action.Binding, 0, len(all))
	for _, b := range all {
		if b.Enabled {
			out = append(out, b.ToAction())
		}
	}
	return out, nil
}

// Update validates and updates an existing binding.
func (r *BindingRepository) Update(b *Binding) error {
	if err := b.ToAction().Validate(); err != nil {
		return err
	}

	params, err := json.Marshal(b.Action)
	if err != nil {
		return err
	}

	enabled := 0
	if b.Enabled {
		enabled = 1
	}

	result, err := r.db.Exec(
		`UPDATE bindings SET position = ?, handedness = ?, gesture = ?, kind = ?, params = ?, enabled = ?
		 WHERE id = ?`,
		b.Position, string(b.Handedness), b.Gesture, string(b.Action.Kind), string(params), enabled, b.ID,
	)
	if err != nil {
		return err
	}

	return expectOneRow(result)
}

// Delete removes a binding from the database by its ID.
func (r *BindingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM bindings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// Count returns the number of stored bindings.
func (r *BindingRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM bindings`).Scan(&n)
	return n, err
}

// Seed inserts bindings in order when the table is empty and reports whether it did.
func (r *BindingRepository) Seed(bindings []action.Binding) (bool, error) {
	n, err := r.Count()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	for i, ab := range bindings {
		b := &Binding{
			Position:   i + 1,
			Handedness: ab.Handedness,
			Gesture:    ab.Gesture,
			Action:     ab.Action,
			Enabled:    true,
		}
		if err := r.Create(b); err != nil {
			return false, fmt.Errorf("seed binding %d: %w", i, err)
		}
	}
	return true, nil
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
