package models

import "time"

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"

	StatusNormal = "normal"
	StatusLocked = "locked"
)

// Account представляет учётную запись покупателя или администратора
type Account struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	PassHash  []byte    `json:"-"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a *Account) IsLocked() bool {
	return a.Status != StatusNormal
}

// AccountProfile: анкетные данные, создаются вместе с аккаунтом
type AccountProfile struct {
	AccountID   int64     `json:"account_id"`
	FullName    string    `json:"full_name"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
}

// ValidRole проверяет, что роль входит в допустимый набор
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

func ValidStatus(status string) bool {
	return status == StatusNormal || status == StatusLocked
}
