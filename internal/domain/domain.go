package domain

import (
	"github.com/mizanhq/mizan-backend/internal/domain/auth"
	"github.com/mizanhq/mizan-backend/internal/domain/regulatory"
	"github.com/mizanhq/mizan-backend/internal/domain/user"
)

const (
	RoleAdmin  = user.RoleAdmin
	RoleMember = user.RoleMember
)

type User = user.User
type UserToken = auth.UserToken

type Framework = regulatory.Framework
type Control = regulatory.Control
type Article = regulatory.Article
type Provision = regulatory.Provision
type Edge = regulatory.Edge
type Priority = regulatory.Priority
