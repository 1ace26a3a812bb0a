// Package cart implements the client-side cart: a pure transition function
// over tagged commands, and a Coordinator that keeps one instance's in-memory
// cart synchronized with durable storage and with sibling instances.
package cart

import "github.com/printforge/storefront/internal/models"

// Command is a tagged cart mutation. Apply processes one command against a
// cart snapshot and returns the next snapshot without touching the input.
type Command interface {
	isCommand()
}

// AddToCart appends a line, or merges quantities into the existing line with
// the same (productID, color, filamentType) identity.
type AddToCart struct {
	Line models.CartLine
}

// RemoveFromCart removes the line matching the identity of Line, if present.
type RemoveFromCart struct {
	Line models.CartLine
}

// UpdateQuantity sets the quantity of the line matching the identity of Line.
// A quantity of zero or less removes the line.
type UpdateQuantity struct {
	Line     models.CartLine
	Quantity int
}

// Clear empties the cart.
type Clear struct{}

func (AddToCart) isCommand()      {}
func (RemoveFromCart) isCommand() {}
func (UpdateQuantity) isCommand() {}
func (Clear) isCommand()          {}

// Apply returns the cart state resulting from cmd. It never mutates prev:
// callers may hold the previous snapshot across an Apply call. Unknown or
// invalid commands leave the state unchanged.
func Apply(prev []models.CartLine, cmd Command) []models.CartLine {
	switch c := cmd.(type) {
	case AddToCart:
		return applyAdd(prev, c.Line)
	case RemoveFromCart:
		return applyRemove(prev, c.Line)
	case UpdateQuantity:
		if c.Quantity <= 0 {
			return applyRemove(prev, c.Line)
		}
		return applySetQuantity(prev, c.Line, c.Quantity)
	case Clear:
		return []models.CartLine{}
	default:
		return prev
	}
}

func applyAdd(prev []models.CartLine, line models.CartLine) []models.CartLine {
	// A line without a product id is a wiring mistake upstream; drop it.
	if line.ProductID == 0 {
		return prev
	}
	next := make([]models.CartLine, len(prev))
	copy(next, prev)
	for i := range next {
		if next[i].SameLine(line) {
			// Merge, not replace: the line keeps its first-insertion position.
			next[i].Quantity += line.Quantity
			return next
		}
	}
	return append(next, line)
}

func applyRemove(prev []models.CartLine, line models.CartLine) []models.CartLine {
	next := make([]models.CartLine, 0, len(prev))
	for _, l := range prev {
		if l.SameLine(line) {
			continue
		}
		next = append(next, l)
	}
	return next
}

func applySetQuantity(prev []models.CartLine, line models.CartLine, quantity int) []models.CartLine {
	next := make([]models.CartLine, len(prev))
	copy(next, prev)
	for i := range next {
		if next[i].SameLine(line) {
			next[i].Quantity = quantity
			break
		}
	}
	return next
}
