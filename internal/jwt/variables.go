package jwt

import (
	"lumenhaus-backend/internal/env"
)

var (
	OPERATOR_SECRET string
	RoleSecrets     map[Role]string
)

const (
	RoleOperator Role = iota
)

// RoleSecrets is populated here, after the env read, so tokens are never
// signed with an empty key.
func init() {
	OPERATOR_SECRET = env.Get(env.OperatorSecretKey)

	RoleSecrets = map[Role]string{
		RoleOperator: OPERATOR_SECRET,
	}
}
