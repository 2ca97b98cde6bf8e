// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package access

import "slices"

// Basis names the rule that granted access.
type Basis string

const (
	BasisRole        Basis = "role"
	BasisOwner       Basis = "owner"
	BasisPublic      Basis = "public"
	BasisAllowList   Basis = "allow_list"
	BasisParentOwner Basis = "template_owner"
)

// Decision is the outcome of Decide. Exactly one of Basis or Reason is set.
type Decision struct {
	Allowed bool
	Basis   Basis
	Reason  Reason
}

func allow(b Basis) Decision { return Decision{Allowed: true, Basis: b} }

func deny(r Reason) Decision { return Decision{Reason: r} }

// Decide evaluates, in order: override role, ownership, and for reads the
// template's visibility and allow-list or the parent template's author.
// Manage operations never consult visibility.
func Decide(p Principal, res Resource, op Operation, overrideRoles []string) Decision {
	if p.HasRole(overrideRoles...) {
		return allow(BasisRole)
	}
	if p.ID != 0 && p.ID == res.OwnerID {
		return allow(BasisOwner)
	}

	if op == OpRead {
		switch res.Kind {
		case KindTemplate:
			if res.IsPublic {
				return allow(BasisPublic)
			}
			if slices.Contains(res.AllowedUserIDs, p.ID) {
				return allow(BasisAllowList)
			}
			return deny(ReasonNotVisible)
		case KindForm, KindAnswer:
			if p.ID != 0 && p.ID == res.ParentOwnerID {
				return allow(BasisParentOwner)
			}
		}
	}
	return deny(ReasonNotOwner)
}
