// Package auth демо-аутентификация: фиксированные пользователи,
// токены HS256 и middleware для защищенных маршрутов.
package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"smartcity-air/internal/models"
)

// ErrInvalidCredentials неверный email, пароль или профиль
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

const demoPassword = "demo"

// Personas профили демо-режима
const (
	PersonaEnv     = "env"
	PersonaElected = "elected"
	PersonaCitizen = "citizen"
)

// DemoUsers пользователи демо-режима, пароль у всех "demo"
var DemoUsers = []models.User{
	{Email: "marie.env@smartcity.demo", Name: "Marie Dubois", Persona: PersonaEnv, Role: "Responsable Environnement"},
	{Email: "paul.elu@smartcity.demo", Name: "Paul Martin", Persona: PersonaElected, Role: "Élu"},
	{Email: "citoyen@smartcity.demo", Name: "Sam Citizen", Persona: PersonaCitizen, Role: "Citoyen"},
}

// UserByPersona пользователь профиля, по умолчанию первый
func UserByPersona(persona string) models.User {
	for _, u := range DemoUsers {
		if u.Persona == persona {
			return u
		}
	}
	return DemoUsers[0]
}

// Authenticate проверяет вход. Без email вход выполняется по профилю.
func Authenticate(req models.LoginRequest) (models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		if req.Persona == "" {
			return models.User{}, ErrInvalidCredentials
		}
		return UserByPersona(req.Persona), nil
	}

	for _, u := range DemoUsers {
		if u.Email != email {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(req.Password), []byte(demoPassword)) != 1 {
			return models.User{}, ErrInvalidCredentials
		}
		return u, nil
	}
	return models.User{}, ErrInvalidCredentials
}
