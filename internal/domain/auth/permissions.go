package auth

import (
	"context"
	"slices"
)

const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleEvaluator  = "evaluator"
	RoleEmployee   = "employee"
)

const (
	PermEmployeesRead         = "employees.read"
	PermEmployeesWrite        = "employees.write"
	PermEvaluationsRead       = "evaluations.read"
	PermEvaluationsWrite      = "evaluations.write"
	PermRankingRead           = "ranking.read"
	PermSettingsWrite         = "settings.write"
	PermBonusRead             = "bonus.read"
	PermChallengesRead        = "challenges.read"
	PermChallengesManage      = "challenges.manage"
	PermChallengesParticipate = "challenges.participate"
	PermChallengesReview      = "challenges.review"
	PermAwardsRead            = "awards.read"
	PermAwardsManage          = "awards.manage"
	PermAuditRead             = "audit.read"
)

var DefaultPermissions = []string{
	PermEmployeesRead,
	PermEmployeesWrite,
	PermEvaluationsRead,
	PermEvaluationsWrite,
	PermRankingRead,
	PermSettingsWrite,
	PermBonusRead,
	PermChallengesRead,
	PermChallengesManage,
	PermChallengesParticipate,
	PermChallengesReview,
	PermAwardsRead,
	PermAwardsManage,
	PermAuditRead,
}

var DefaultRoles = []string{RoleSuperAdmin, RoleAdmin, RoleEvaluator, RoleEmployee}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermRankingRead,
		PermChallengesRead,
		PermChallengesParticipate,
		PermAwardsRead,
	},
	RoleEvaluator: {
		PermEmployeesRead,
		PermEvaluationsRead,
		PermEvaluationsWrite,
		PermRankingRead,
		PermBonusRead,
		PermChallengesRead,
		PermChallengesReview,
		PermAwardsRead,
	},
	RoleAdmin:      DefaultPermissions,
	RoleSuperAdmin: DefaultPermissions,
}

// Privileged roles see the full leaderboard even when the public view is off.
func Privileged(role string) bool {
	return role == RoleSuperAdmin || role == RoleAdmin || role == RoleEvaluator
}

// StaticPermissions resolves permissions from RolePermissions.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	perms, ok := RolePermissions[role]
	if !ok {
		return false, nil
	}
	return slices.Contains(perms, permission), nil
}

func ValidRole(role string) bool {
	return slices.Contains(DefaultRoles, role)
}
