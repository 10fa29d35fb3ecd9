package compute

import (
	"context"
	"errors"

	"github.com/outpost-sh/outpost/pkg/types"
)

// ErrInstanceNotFound is returned by Describe when the platform does not
// know the instance. Very recently terminated instances eventually
// disappear from the platform's answers entirely.
var ErrInstanceNotFound = errors.New("compute: instance not found")

// Platform is the narrow slice of the compute provider the controllers
// need: launch one instance from a pre-built template, and inspect one
// instance's state and public address.
type Platform interface {
	// CreateFromTemplate launches exactly one instance from the launch
	// template and returns its ID. Returning an error with no instance
	// created is the only acceptable failure mode; partial launches do
	// not happen at this level.
	CreateFromTemplate(ctx context.Context, templateID string) (string, error)

	// Describe returns the instance's current lifecycle state and public
	// address. The address is empty until the platform assigns one.
	Describe(ctx context.Context, instanceID string) (*types.Instance, error)
}
