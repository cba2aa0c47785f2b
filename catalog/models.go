// Package catalog defines the operator-managed reference data: capacity
// limited groups and priced packages.
package catalog

import (
	"fmt"

	"github.com/xraph/tally/id"
	"github.com/xraph/tally/types"
)

// NoneLabel is shown in place of a group or package name when a customer
// references a record that no longer exists.
const NoneLabel = "none"

// Group is a shared account with a fixed number of counted seats.
type Group struct {
	ID           id.ID  `json:"id"`
	Name         string `json:"groupName" validate:"required"`
	OwnerName    string `json:"ownerName"`
	OwnerPhone   string `json:"ownerPhone"`
	CarrierName  string `json:"carrierName"`
	CarrierPhone string `json:"carrierPhone"`
	Limit        int    `json:"groupLimit" validate:"min=0"`
}

// Package is a priced subscription offering.
type Package struct {
	ID          id.ID       `json:"id"`
	Name        string      `json:"packageName" validate:"required"`
	Price       types.Money `json:"packagePrice" validate:"min=0"`
	Description string      `json:"packageDesc"`
}

// Usage is a group together with the number of seats currently counted
// against it.
type Usage struct {
	Group *Group `json:"group"`
	Used  int    `json:"used"`
}

// Full reports whether the group has no free counted seats.
func (u Usage) Full() bool { return u.Used >= u.Group.Limit }

// String renders the usage as "used / limit".
func (u Usage) String() string { return fmt.Sprintf("%d / %d", u.Used, u.Group.Limit) }

// FindGroup returns the group with the given ID, or nil.
func FindGroup(groups []*Group, groupID id.ID) *Group {
	for _, g := range groups {
		if g.ID == groupID {
			return g
		}
	}
	return nil
}

// FindPackage returns the package with the given ID, or nil.
func FindPackage(packages []*Package, packageID id.ID) *Package {
	for _, p := range packages {
		if p.ID == packageID {
			return p
		}
	}
	return nil
}

// GroupName returns the name of the group or NoneLabel when it is missing.
func GroupName(groups []*Group, groupID id.ID) string {
	if g := FindGroup(groups, groupID); g != nil {
		return g.Name
	}
	return NoneLabel
}

// PackageName returns the name of the package or NoneLabel when it is missing.
func PackageName(packages []*Package, packageID id.ID) string {
	if p := FindPackage(packages, packageID); p != nil {
		return p.Name
	}
	return NoneLabel
}
