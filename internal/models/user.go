package models

import "time"

// User is a registered contributor. Handle is the public, unique login name.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Handle       string    `json:"handle" gorm:"size:150;uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"size:254;index"`
	PasswordHash string    `json:"-"`
	FirebaseUID  *string   `json:"-" gorm:"size:128;uniqueIndex"` // Set only for accounts linked to Firebase sign-in
	IsStaff      bool      `json:"is_staff"`
	Profile      *Profile  `json:"profile,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RegisterForm defines the registration form body
type RegisterForm struct {
	Handle   string `form:"username" json:"username" validate:"required,max=150,handle"`
	Email    string `form:"email" json:"email" validate:"required,email"`
	Password string `form:"password1" json:"password1" validate:"required,min=8,notnumeric"`
	Confirm  string `form:"password2" json:"password2" validate:"required,eqfield=Password"`
}

// LoginForm defines the login form body
type LoginForm struct {
	Handle     string `form:"username" json:"username" validate:"required"`
	Password   string `form:"password" json:"password" validate:"required"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
	Next       string `form:"next" json:"next"`
}

// FirebaseLoginRequest defines the request body for Firebase sign-in
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" form:"idToken" validate:"required"`
}
