package tally

import (
	"context"
	"strings"

	"github.com/xraph/tally/catalog"
	"github.com/xraph/tally/customer"
	"github.com/xraph/tally/document"
	"github.com/xraph/tally/id"
)

// ──────────────────────────────────────────────────
// Groups
// ──────────────────────────────────────────────────

// UpsertGroup replaces the group with g.ID in place, or appends g under a
// fresh ID when g.ID is unset or unknown. It returns the saved group.
func (t *Tally) UpsertGroup(ctx context.Context, g *catalog.Group) (*catalog.Group, error) {
	if g == nil {
		return nil, ErrInvalidInput
	}
	in := *g
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(&in); err != nil {
		return nil, err
	}

	var saved catalog.Group
	err := t.write(ctx, "group.upsert", func(doc *document.Document) (func(), error) {
		created := true
		for i, existing := range doc.Groups {
			if !in.ID.IsNil() && existing.ID == in.ID {
				doc.Groups[i] = &in
				created = false
				break
			}
		}
		if created {
			in.ID = id.NewGroupID()
			doc.Groups = append(doc.Groups, &in)
		}
		saved = in

		return func() {
			cp := saved
			t.logger.Debug("group saved", "group_id", cp.ID.String(), "created", created)
			t.plugins.EmitGroupSaved(ctx, &cp, created)
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// DeleteGroup removes a group. Customers keep their dangling group ID and
// are shown under "none". Deleting an unknown ID does nothing.
func (t *Tally) DeleteGroup(ctx context.Context, groupID id.ID) error {
	return t.write(ctx, "group.delete", func(doc *document.Document) (func(), error) {
		kept := doc.Groups[:0]
		for _, g := range doc.Groups {
			if g.ID != groupID {
				kept = append(kept, g)
			}
		}
		if len(kept) == len(doc.Groups) {
			return nil, errUnchanged
		}
		doc.Groups = kept

		return func() {
			t.logger.Debug("group deleted", "group_id", groupID.String())
			t.plugins.EmitGroupDeleted(ctx, groupID)
		}, nil
	})
}

// Groups returns every group in book order.
func (t *Tally) Groups(_ context.Context) ([]*catalog.Group, error) {
	var out []*catalog.Group
	err := t.read(func(doc *document.Document) error {
		out = make([]*catalog.Group, len(doc.Groups))
		for i, g := range doc.Groups {
			cp := *g
			out[i] = &cp
		}
		return nil
	})
	return out, err
}

// Group returns one group.
func (t *Tally) Group(_ context.Context, groupID id.ID) (*catalog.Group, error) {
	var out *catalog.Group
	err := t.read(func(doc *document.Document) error {
		g := catalog.FindGroup(doc.Groups, groupID)
		if g == nil {
			return ErrGroupNotFound
		}
		cp := *g
		out = &cp
		return nil
	})
	return out, err
}

// GroupUsage returns every group with its counted occupancy.
func (t *Tally) GroupUsage(_ context.Context) ([]catalog.Usage, error) {
	var out []catalog.Usage
	err := t.read(func(doc *document.Document) error {
		out = groupUsage(doc)
		return nil
	})
	return out, err
}

func groupUsage(doc *document.Document) []catalog.Usage {
	out := make([]catalog.Usage, len(doc.Groups))
	for i, g := range doc.Groups {
		cp := *g
		out[i] = catalog.Usage{
			Group: &cp,
			Used:  customer.CountInGroup(doc.Customers, g.ID, id.Nil),
		}
	}
	return out
}

// ──────────────────────────────────────────────────
// Packages
// ──────────────────────────────────────────────────

// UpsertPackage replaces the package with p.ID in place, or appends p under
// a fresh ID when p.ID is unset or unknown. Existing payments keep the
// amount they were created with.
func (t *Tally) UpsertPackage(ctx context.Context, p *catalog.Package) (*catalog.Package, error) {
	if p == nil {
		return nil, ErrInvalidInput
	}
	in := *p
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(&in); err != nil {
		return nil, err
	}

	var saved catalog.Package
	err := t.write(ctx, "package.upsert", func(doc *document.Document) (func(), error) {
		created := true
		for i, existing := range doc.Packages {
			if !in.ID.IsNil() && existing.ID == in.ID {
				doc.Packages[i] = &in
				created = false
				break
			}
		}
		if created {
			in.ID = id.NewPackageID()
			doc.Packages = append(doc.Packages, &in)
		}
		saved = in

		return func() {
			cp := saved
			t.logger.Debug("package saved", "package_id", cp.ID.String(), "created", created)
			t.plugins.EmitPackageSaved(ctx, &cp, created)
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// DeletePackage removes a package. Customers on it are quoted zero until
// moved to another package. Deleting an unknown ID does nothing.
func (t *Tally) DeletePackage(ctx context.Context, packageID id.ID) error {
	return t.write(ctx, "package.delete", func(doc *document.Document) (func(), error) {
		kept := doc.Packages[:0]
		for _, p := range doc.Packages {
			if p.ID != packageID {
				kept = append(kept, p)
			}
		}
		if len(kept) == len(doc.Packages) {
			return nil, errUnchanged
		}
		doc.Packages = kept

		return func() {
			t.logger.Debug("package deleted", "package_id", packageID.String())
			t.plugins.EmitPackageDeleted(ctx, packageID)
		}, nil
	})
}

// Packages returns every package in book order.
func (t *Tally) Packages(_ context.Context) ([]*catalog.Package, error) {
	var out []*catalog.Package
	err := t.read(func(doc *document.Document) error {
		out = make([]*catalog.Package, len(doc.Packages))
		for i, p := range doc.Packages {
			cp := *p
			out[i] = &cp
		}
		return nil
	})
	return out, err
}

// Package returns one package.
func (t *Tally) Package(_ context.Context, packageID id.ID) (*catalog.Package, error) {
	var out *catalog.Package
	err := t.read(func(doc *document.Document) error {
		p := catalog.FindPackage(doc.Packages, packageID)
		if p == nil {
			return ErrPackageNotFound
		}
		cp := *p
		out = &cp
		return nil
	})
	return out, err
}
