// Copyright (c) 2026 Umar7799
// SPDX-License-Identifier: GPL-3.0-or-later

package access

import "github.com/Umar7799/course-project/internal/model"

// Policy controls where the admin role overrides ownership. Admins always manage
// templates, questions, forms and comments; for answers and for the allow-list of
// a template the override is opt-in.
type Policy struct {
	AdminOverridesAnswers bool
	AdminOverridesSharing bool
}

// ManagerRoles are the roles that manage any template, question, form or comment.
func (p Policy) ManagerRoles() []string {
	return []string{model.RoleAdmin}
}

// AnswerRoles are the roles that may edit or delete answers of other users.
func (p Policy) AnswerRoles() []string {
	if p.AdminOverridesAnswers {
		return []string{model.RoleAdmin}
	}
	return nil
}

// SharingRoles are the roles that may change the allow-list of templates they do not own.
func (p Policy) SharingRoles() []string {
	if p.AdminOverridesSharing {
		return []string{model.RoleAdmin}
	}
	return nil
}
